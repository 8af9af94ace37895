package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Fallback reasons, recorded on each escalation event
const (
	ReasonCrossTier       = "cross-tier coverage"
	ReasonDoubleShift     = "double shift"
	ReasonEmergency       = "emergency coverage"
	ReasonEmergencyDouble = "emergency double coverage"
)

// resolveFallback fills a slot no ordinary assignment could cover, walking the
// escalation ladder: cross-tier borrowing, then double-shifting the user
// already on duty, then emergency coverage ignoring PTO, then emergency
// double coverage ignoring same-day conflicts as well. The schedule is never
// left with a silently skipped slot while any candidate exists.
func (e *Engine) resolveFallback(tier Tier, slot Slot, date time.Time) {
	// Step 1: borrow from the other daily tier. Never for upgrade.
	if tier != TierUpgrade {
		pool := e.sortByLoadKey(e.rosters.CrossTier(tier))
		for _, user := range pool {
			if e.unavail.IsAvailable(user, date) && !e.sched.IsAssigned(user, date) {
				e.commitFallback(tier, slot, date, user, TagNone, ReasonCrossTier)
				return
			}
		}
	}

	// Step 2: double-shift the user already covering this tier today.
	// A partner who only holds their slot through emergency escalation keeps
	// the emergency grading on the doubled slot too.
	if partner, ok := e.partnerAssignment(tier, slot, date); ok {
		if partner.Tag.IsEmergency() {
			e.commitFallback(tier, slot, date, partner.User, TagEmergencyDouble, ReasonEmergencyDouble)
		} else {
			e.commitFallback(tier, slot, date, partner.User, TagDouble, ReasonDoubleShift)
		}
		return
	}

	// Step 3: emergency coverage, ignoring unavailability
	pool := e.sortByLoadKey(e.rosters.EmergencyPool(tier))
	for _, user := range pool {
		if !e.sched.IsAssigned(user, date) {
			e.commitFallback(tier, slot, date, user, TagEmergency, ReasonEmergency)
			return
		}
	}

	// Step 4: emergency double coverage, ignoring same-day conflicts too
	if len(pool) > 0 {
		e.commitFallback(tier, slot, date, pool[0], TagEmergencyDouble, ReasonEmergencyDouble)
		return
	}

	e.notef("no candidate at all for %s/%s on %s", tier, slot, date.Format("2006-01-02"))
}

// partnerAssignment returns the assignment holding the other slot of the same
// tier on the given day. Upgrade has a single slot and never has a partner.
func (e *Engine) partnerAssignment(tier Tier, slot Slot, date time.Time) (Assignment, bool) {
	var other Slot
	switch slot {
	case SlotMorning:
		other = SlotEvening
	case SlotEvening:
		other = SlotMorning
	default:
		return Assignment{}, false
	}
	return e.sched.Lookup(date, tier, other)
}

func (e *Engine) sortByLoadKey(users []string) []string {
	sorted := append([]string{}, users...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return e.ledger.LoadBalanceKey(sorted[i]) < e.ledger.LoadBalanceKey(sorted[j])
	})
	return sorted
}

func (e *Engine) commitFallback(tier Tier, slot Slot, date time.Time, user string, tag Tag, reason string) {
	_ = e.sched.Assign(date, tier, slot, Assignment{User: user, Tag: tag})
	e.ledger.RecordShift(user, 1)
	e.fallbacks = append(e.fallbacks, FallbackEvent{
		ID:     uuid.NewString(),
		Date:   date,
		Tier:   tier,
		Slot:   slot,
		User:   user,
		Tag:    tag,
		Reason: reason,
	})
}
