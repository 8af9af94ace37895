package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// maxWeeklyTurns caps how many weekly-shift turns one user may take per month
const maxWeeklyTurns = 2

// Input contains everything a generation run needs. All state is passed
// explicitly; nothing is shared between runs.
type Input struct {
	// Rosters are the ordered tier rosters
	Rosters Rosters

	// Unavailable is the per-user blocked-date set, immutable during the run
	Unavailable Unavailable

	// Year and Month identify the target month
	Year  int
	Month time.Month

	// Continuation carries last-month weekly incumbents and is optional
	Continuation ContinuationState

	// Cumulative carries historical shift counts per user, sourced from the
	// history store
	Cumulative map[string]int

	// Seed, when set, makes rotation shuffles and tie-breaks reproducible.
	// When nil, no shuffling happens and roster order decides ties.
	Seed *int64
}

// Result is the complete outcome of one generation run
type Result struct {
	RunID string
	Year  int
	Month time.Month
	Weeks []Week

	Schedule  *Schedule
	Fallbacks []FallbackEvent

	// Notes are generation-time warnings (back-to-back overrides, unfilled weeks)
	Notes []string

	// Report is the post-generation audit
	Report Report

	// MonthCounts and WeeklyTurns snapshot the ledger before commit
	MonthCounts map[string]int
	WeeklyTurns map[string]int

	// Cumulative holds the committed historical counts for persistence
	Cumulative map[string]int

	// Continuation holds the last weekly incumbents for the next month's run
	Continuation ContinuationState
}

// Engine runs one generation call. A fresh instance is built per call;
// instances are never shared.
type Engine struct {
	rosters Rosters
	unavail Unavailable
	ledger  *Ledger
	sched   *Schedule
	rng     *rand.Rand

	queues     map[string]*rotationQueue
	lastWeekly map[string]string

	weeks     []Week
	fallbacks []FallbackEvent
	notes     []string
}

// Generate builds a fully populated schedule for the target month, runs the
// validator over it, and commits the fairness ledger.
func Generate(in Input) (*Result, error) {
	if in.Month < time.January || in.Month > time.December {
		return nil, fmt.Errorf("invalid month %d", in.Month)
	}
	if in.Year < 1 {
		return nil, fmt.Errorf("invalid year %d", in.Year)
	}
	if len(in.Rosters.Tier2) == 0 && len(in.Rosters.Tier3) == 0 && len(in.Rosters.Upgrade) == 0 {
		return nil, fmt.Errorf("all rosters are empty")
	}

	e := &Engine{
		rosters:    in.Rosters,
		unavail:    in.Unavailable,
		ledger:     NewLedger(in.Cumulative),
		sched:      NewSchedule(),
		queues:     make(map[string]*rotationQueue),
		lastWeekly: make(map[string]string),
		weeks:      MonthWeeks(in.Year, in.Month),
	}
	if e.unavail == nil {
		e.unavail = Unavailable{}
	}
	if in.Seed != nil {
		e.rng = rand.New(rand.NewSource(*in.Seed))
	}
	for name, user := range in.Continuation.LastWeekly {
		e.lastWeekly[name] = user
	}
	for _, wt := range WeeklyShiftTypes {
		e.queues[wt.Name] = newRotationQueue(e.rosters.ForTier(wt.Tier), e.rng)
	}

	for _, week := range e.weeks {
		for _, wt := range WeeklyShiftTypes {
			e.assignWeeklyShift(wt, week)
		}
		for _, day := range week.Days() {
			e.assignDailyShifts(TierTwo, day)
			for _, slot := range []Slot{SlotMorning, SlotEvening} {
				if _, ok := e.sched.Lookup(day, TierThree, slot); !ok {
					e.fillSlot(TierThree, slot, day)
				}
			}
			if _, ok := e.sched.Lookup(day, TierUpgrade, SlotFull); !ok {
				e.fillSlot(TierUpgrade, SlotFull, day)
			}
		}
	}

	monthCounts := make(map[string]int)
	weeklyTurns := make(map[string]int)
	for _, user := range e.rosters.EmergencyPool(TierTwo) {
		monthCounts[user] = e.ledger.MonthCount(user)
	}
	for _, user := range e.rosters.Upgrade {
		monthCounts[user] = e.ledger.MonthCount(user)
	}
	for user := range monthCounts {
		weeklyTurns[user] = e.ledger.WeeklyTurns(user)
	}

	report := Validate(ValidateInput{
		Schedule:     e.sched,
		Unavailable:  e.unavail,
		Rosters:      e.rosters,
		Weeks:        e.weeks,
		Year:         in.Year,
		Month:        in.Month,
		Continuation: in.Continuation,
	})

	return &Result{
		RunID:        uuid.NewString(),
		Year:         in.Year,
		Month:        in.Month,
		Weeks:        e.weeks,
		Schedule:     e.sched,
		Fallbacks:    e.fallbacks,
		Notes:        e.notes,
		Report:       report,
		MonthCounts:  monthCounts,
		WeeklyTurns:  weeklyTurns,
		Cumulative:   e.ledger.Commit(),
		Continuation: ContinuationState{LastWeekly: e.lastWeekly},
	}, nil
}

func (e *Engine) notef(format string, args ...interface{}) {
	e.notes = append(e.notes, fmt.Sprintf(format, args...))
}

// pick chooses among tied candidates: random when seeded, first otherwise
func (e *Engine) pick(candidates []string) string {
	if e.rng != nil {
		return candidates[e.rng.Intn(len(candidates))]
	}
	return candidates[0]
}
