package engine

import (
	"sort"
	"time"
)

// eligibleUsers returns the tier's roster minus unavailable users and users
// already holding a shift that day, sorted ascending by load-balance key.
// The sort is stable, so exact ties keep roster order.
func (e *Engine) eligibleUsers(tier Tier, date time.Time) []string {
	var eligible []string
	for _, user := range e.rosters.ForTier(tier) {
		if e.unavail.IsAvailable(user, date) && !e.sched.IsAssigned(user, date) {
			eligible = append(eligible, user)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return e.ledger.LoadBalanceKey(eligible[i]) < e.ledger.LoadBalanceKey(eligible[j])
	})
	return eligible
}

// assignDailyShifts fills the morning and evening slots of a daily tier for
// one day, load-balanced by combined cumulative plus month-to-date count.
func (e *Engine) assignDailyShifts(tier Tier, date time.Time) {
	eligible := e.eligibleUsers(tier, date)

	switch {
	case len(eligible) >= 2:
		e.assignDaily(tier, SlotMorning, date, eligible[0])
		e.assignDaily(tier, SlotEvening, date, eligible[1])
	case len(eligible) == 1:
		e.assignDaily(tier, SlotMorning, date, eligible[0])
		e.resolveFallback(tier, SlotEvening, date)
	default:
		e.resolveFallback(tier, SlotMorning, date)
		e.resolveFallback(tier, SlotEvening, date)
	}
}

// fillSlot covers a single slot the weekly pass left open, picking the
// lowest-keyed eligible user or escalating to the fallback resolver.
func (e *Engine) fillSlot(tier Tier, slot Slot, date time.Time) {
	eligible := e.eligibleUsers(tier, date)
	if len(eligible) == 0 {
		e.resolveFallback(tier, slot, date)
		return
	}
	e.assignDaily(tier, slot, date, eligible[0])
}

func (e *Engine) assignDaily(tier Tier, slot Slot, date time.Time, user string) {
	_ = e.sched.Assign(date, tier, slot, Assignment{User: user})
	e.ledger.RecordShift(user, 1)
}
