package engine

// assignWeeklyShift picks one user to hold the given weekly shift type for the
// whole week. Selection runs a strict priority ladder and stops at the first
// rule that yields a candidate:
//
//  1. rotation-queue candidates with zero weekly turns this month
//  2. rotation-queue candidates with one turn, but only once nobody eligible
//     in the whole roster still has zero turns (the fairness floor)
//  3. whole-roster scan, zero turns preferred over one
//  4. last week's incumbent, recorded as a back-to-back override
//
// If every rule fails the week stays unassigned and a note is recorded.
func (e *Engine) assignWeeklyShift(wt WeeklyShiftType, week Week) {
	roster := e.rosters.ForTier(wt.Tier)
	if len(roster) == 0 {
		e.notef("no %s roster, week of %s left unassigned", wt.Name, week.Start.Format("2006-01-02"))
		return
	}

	last := e.lastWeekly[wt.Name]
	queue := e.queues[wt.Name]

	eligible := func(user string) bool {
		return user != last &&
			e.ledger.WeeklyTurns(user) < maxWeeklyTurns &&
			e.unavail.IsAvailableForWeek(user, week, e.sched)
	}

	// Rule 1: queue, first turn
	if user, ok := queue.TakeNext(func(u string) bool {
		return eligible(u) && e.ledger.WeeklyTurns(u) == 0
	}); ok {
		e.commitWeeklyShift(wt, week, user)
		return
	}

	// Rule 2: queue, second turn, gated by the fairness floor. Users with no
	// available week left never count toward the floor.
	if !e.anyZeroTurnEligible(roster, week, last) {
		if user, ok := queue.TakeNext(func(u string) bool {
			return eligible(u) && e.ledger.WeeklyTurns(u) == 1
		}); ok {
			e.commitWeeklyShift(wt, week, user)
			return
		}
	}

	// Rule 3: whole-roster scan, zero turns before one, ties picked at random
	// when seeded
	for turns := 0; turns < maxWeeklyTurns; turns++ {
		var candidates []string
		for _, user := range roster {
			if eligible(user) && e.ledger.WeeklyTurns(user) == turns {
				candidates = append(candidates, user)
			}
		}
		if len(candidates) > 0 {
			user := e.pick(candidates)
			queue.Remove(user)
			e.commitWeeklyShift(wt, week, user)
			return
		}
	}

	// Rule 4: reuse last week's incumbent if they can cover the week
	if last != "" && e.unavail.IsAvailableForWeek(last, week, e.sched) {
		e.notef("%s assigned back-to-back %s weeks starting %s due to availability constraints",
			last, wt.Name, week.Start.Format("2006-01-02"))
		e.commitWeeklyShift(wt, week, last)
		return
	}

	e.notef("no available users for %s shift, week of %s", wt.Name, week.Start.Format("2006-01-02"))
}

// anyZeroTurnEligible reports whether any roster user with zero weekly turns
// could still take this week. This is the fairness floor: nobody gets a second
// turn while such a user exists.
func (e *Engine) anyZeroTurnEligible(roster []string, week Week, last string) bool {
	for _, user := range roster {
		if user == last || e.ledger.WeeklyTurns(user) != 0 {
			continue
		}
		if e.unavail.IsAvailableForWeek(user, week, e.sched) {
			return true
		}
	}
	return false
}

// commitWeeklyShift writes the user into all seven slots of the week, credits
// the ledger, and records the incumbent for next week's back-to-back check.
func (e *Engine) commitWeeklyShift(wt WeeklyShiftType, week Week, user string) {
	for _, day := range week.Days() {
		// Assign can only fail on a duplicate key; the caller checked the
		// week is free via IsAvailableForWeek.
		_ = e.sched.Assign(day, wt.Tier, wt.Slot, Assignment{User: user})
	}
	e.ledger.RecordShift(user, 7)
	e.ledger.RecordWeeklyTurn(user)
	e.lastWeekly[wt.Name] = user
}
