package engine

// Ledger tracks per-user shift counters for one generation run.
// Cumulative counts carry over from prior months through the history store;
// month and weekly-turn counts start at zero every run.
type Ledger struct {
	entries map[string]*ledgerEntry
}

type ledgerEntry struct {
	monthCount      int
	cumulativeCount int
	weeklyTurns     int
}

// NewLedger creates a ledger seeded with cumulative counts from prior months
func NewLedger(cumulative map[string]int) *Ledger {
	l := &Ledger{entries: make(map[string]*ledgerEntry)}
	for user, count := range cumulative {
		l.entries[user] = &ledgerEntry{cumulativeCount: count}
	}
	return l
}

func (l *Ledger) entry(user string) *ledgerEntry {
	e, ok := l.entries[user]
	if !ok {
		e = &ledgerEntry{}
		l.entries[user] = e
	}
	return e
}

// RecordShift adds count shifts to the user's month tally
func (l *Ledger) RecordShift(user string, count int) {
	l.entry(user).monthCount += count
}

// RecordWeeklyTurn increments the user's weekly-shift turn count for the month
func (l *Ledger) RecordWeeklyTurn(user string) {
	l.entry(user).weeklyTurns++
}

// WeeklyTurns returns how many weekly-shift turns the user has this month
func (l *Ledger) WeeklyTurns(user string) int {
	if e, ok := l.entries[user]; ok {
		return e.weeklyTurns
	}
	return 0
}

// MonthCount returns the user's shift count for the current month
func (l *Ledger) MonthCount(user string) int {
	if e, ok := l.entries[user]; ok {
		return e.monthCount
	}
	return 0
}

// CumulativeCount returns the user's carried-in historical shift count
func (l *Ledger) CumulativeCount(user string) int {
	if e, ok := l.entries[user]; ok {
		return e.cumulativeCount
	}
	return 0
}

// LoadBalanceKey is the sort key used by the daily assigner:
// cumulative historical count plus the month-to-date count.
func (l *Ledger) LoadBalanceKey(user string) int {
	if e, ok := l.entries[user]; ok {
		return e.cumulativeCount + e.monthCount
	}
	return 0
}

// Commit folds each user's month count into their cumulative count and
// returns the updated cumulative totals for persistence.
func (l *Ledger) Commit() map[string]int {
	out := make(map[string]int, len(l.entries))
	for user, e := range l.entries {
		e.cumulativeCount += e.monthCount
		e.monthCount = 0
		out[user] = e.cumulativeCount
	}
	return out
}
