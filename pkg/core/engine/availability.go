package engine

import "time"

// Unavailable maps each user to the set of dates they must not be assigned,
// except under emergency escalation. Built once per run, never mutated during it.
type Unavailable map[string]map[time.Time]bool

// NewUnavailable builds an Unavailable set from per-user date lists
func NewUnavailable(dates map[string][]time.Time) Unavailable {
	u := make(Unavailable, len(dates))
	for user, days := range dates {
		set := make(map[time.Time]bool, len(days))
		for _, d := range days {
			set[d] = true
		}
		u[user] = set
	}
	return u
}

// Block marks a single date unavailable for the user
func (u Unavailable) Block(user string, date time.Time) {
	if u[user] == nil {
		u[user] = make(map[time.Time]bool)
	}
	u[user][date] = true
}

// IsAvailable reports whether the user may be assigned on the given date
func (u Unavailable) IsAvailable(user string, date time.Time) bool {
	return !u[user][date]
}

// IsAvailableForWeek reports whether the user is available on all seven days of
// the week and holds no other assignment on any of those days.
func (u Unavailable) IsAvailableForWeek(user string, week Week, sched *Schedule) bool {
	for _, day := range week.Days() {
		if !u.IsAvailable(user, day) || sched.IsAssigned(user, day) {
			return false
		}
	}
	return true
}

// BlockedDays counts the user's unavailable dates in [from, to]
func (u Unavailable) BlockedDays(user string, from, to time.Time) int {
	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !u.IsAvailable(user, d) {
			count++
		}
	}
	return count
}
