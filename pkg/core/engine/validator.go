package engine

import (
	"fmt"
	"sort"
	"time"
)

// Report is the post-generation audit output, ordered by severity.
// Critical findings are violated requirements, warnings are design intent
// bent to keep coverage, informational findings exist for transparency.
type Report struct {
	Critical []string
	Warning  []string
	Info     []string
}

// HasCritical reports whether any requirement was violated
func (r Report) HasCritical() bool {
	return len(r.Critical) > 0
}

func (r *Report) criticalf(format string, args ...interface{}) {
	r.Critical = append(r.Critical, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...interface{}) {
	r.Warning = append(r.Warning, fmt.Sprintf(format, args...))
}

func (r *Report) infof(format string, args ...interface{}) {
	r.Info = append(r.Info, fmt.Sprintf(format, args...))
}

// ValidateInput bundles the finished schedule with the context the checks need
type ValidateInput struct {
	Schedule     *Schedule
	Unavailable  Unavailable
	Rosters      Rosters
	Weeks        []Week
	Year         int
	Month        time.Month
	Continuation ContinuationState
}

// fairnessSpreadLimit flags the month when the gap between the highest and
// lowest shifts-per-available-day ratio exceeds this share of the highest.
const fairnessSpreadLimit = 0.30

// maxPTODaysForFairness excludes heavily-absent users from the fairness
// comparison; their low ratio is explained by PTO, not by the assigner.
const maxPTODaysForFairness = 2

// Validate audits a finished schedule against the scheduling constraints.
// Every check is independent; findings never mutate the schedule.
func Validate(in ValidateInput) Report {
	var report Report

	checkAssignmentConstraints(in, &report)
	checkOverAssignment(in, &report)
	checkFairness(in, &report)
	checkCoverage(in, &report)
	checkWeeklyRotation(in, &report)

	return report
}

// checkAssignmentConstraints covers PTO violations and tier eligibility
func checkAssignmentConstraints(in ValidateInput, report *Report) {
	upgradeRoster := make(map[string]bool)
	for _, user := range in.Rosters.Upgrade {
		upgradeRoster[user] = true
	}

	for _, date := range sortedDates(in.Schedule) {
		day := in.Schedule.Days[date]
		for tier, slots := range day.Slots {
			for slot, a := range slots {
				if a.Tag == TagNone && !in.Unavailable.IsAvailable(a.User, date) {
					report.criticalf("PTO violation: %s assigned to %s/%s on %s while unavailable",
						a.User, tier, slot, date.Format("2006-01-02"))
				}
				if tier == TierUpgrade && !a.Tag.IsEmergency() && !upgradeRoster[a.User] {
					report.criticalf("tier eligibility violation: %s assigned to upgrade on %s but is not on the upgrade roster",
						a.User, date.Format("2006-01-02"))
				}
			}
		}
	}
}

// checkOverAssignment flags users holding more than one slot on a single day.
// Exactly two slots is the expected shape of a double-shift fallback and
// stays a warning; more than two is a requirement violation.
func checkOverAssignment(in ValidateInput, report *Report) {
	for _, date := range sortedDates(in.Schedule) {
		day := in.Schedule.Days[date]
		counts := make(map[string]int)
		tagged := make(map[string]bool)
		for _, slots := range day.Slots {
			for _, a := range slots {
				counts[a.User]++
				if a.Tag == TagDouble || a.Tag == TagEmergencyDouble {
					tagged[a.User] = true
				}
			}
		}
		for _, user := range sortedKeys(counts) {
			switch {
			case counts[user] > 2:
				report.criticalf("over-assignment: %s holds %d slots on %s",
					user, counts[user], date.Format("2006-01-02"))
			case counts[user] == 2:
				note := ""
				if tagged[user] {
					note = " (tagged double shift)"
				}
				report.warnf("double assignment: %s holds 2 slots on %s%s",
					user, date.Format("2006-01-02"), note)
			}
		}
	}
}

// checkFairness compares shifts-per-available-day ratios across users in the
// target month. Users with more than maxPTODaysForFairness blocked days are
// excluded from the comparison.
func checkFairness(in ValidateInput, report *Report) {
	monthStart := Date(in.Year, in.Month, 1)
	monthEnd := monthStart.AddDate(0, 1, -1)
	totalDays := monthEnd.Day()

	shiftsInMonth := make(map[string]int)
	for date, day := range in.Schedule.Days {
		if date.Before(monthStart) || date.After(monthEnd) {
			continue
		}
		for _, slots := range day.Slots {
			for _, a := range slots {
				shiftsInMonth[a.User]++
			}
		}
	}

	type userRatio struct {
		user  string
		ratio float64
	}
	var ratios []userRatio
	for _, user := range in.Rosters.EmergencyPool(TierTwo) {
		blocked := in.Unavailable.BlockedDays(user, monthStart, monthEnd)
		if blocked > maxPTODaysForFairness {
			continue
		}
		available := totalDays - blocked
		if available == 0 {
			continue
		}
		ratios = append(ratios, userRatio{user: user, ratio: float64(shiftsInMonth[user]) / float64(available)})
	}
	if len(ratios) < 2 {
		return
	}

	minR, maxR := ratios[0], ratios[0]
	for _, r := range ratios[1:] {
		if r.ratio < minR.ratio {
			minR = r
		}
		if r.ratio > maxR.ratio {
			maxR = r
		}
	}
	if maxR.ratio > 0 && (maxR.ratio-minR.ratio) > fairnessSpreadLimit*maxR.ratio {
		report.warnf("fairness imbalance: %s carries %.2f shifts/available day vs %.2f for %s",
			maxR.user, maxR.ratio, minR.ratio, minR.user)
	}
}

// checkCoverage looks for dates missing expected slots. Missing daily tier
// slots are warnings; a missing upgrade slot is informational since a failed
// upgrade week is already reported by the assigner.
func checkCoverage(in ValidateInput, report *Report) {
	for _, week := range in.Weeks {
		for _, date := range week.Days() {
			for _, tier := range []Tier{TierTwo, TierThree} {
				for _, slot := range []Slot{SlotMorning, SlotEvening} {
					if _, ok := in.Schedule.Lookup(date, tier, slot); !ok {
						report.warnf("coverage gap: %s/%s unfilled on %s", tier, slot, date.Format("2006-01-02"))
					}
				}
			}
			if _, ok := in.Schedule.Lookup(date, TierUpgrade, SlotFull); !ok {
				report.infof("coverage gap: upgrade unfilled on %s", date.Format("2006-01-02"))
			}
		}
	}
}

// checkWeeklyRotation recomputes weekly turns from the schedule and flags
// cap violations and back-to-back weeks, including across the month boundary
// via the continuation state.
func checkWeeklyRotation(in ValidateInput, report *Report) {
	turns := make(map[string]int)
	heldTiers := make(map[string]map[Tier]bool)

	// A tier is undersized when its weekly demand (types x weeks) exceeds
	// what its roster can supply under the turn cap. Exceeding the cap is
	// then unavoidable and downgraded to a warning.
	weeklyTypesPerTier := make(map[Tier]int)
	for _, wt := range WeeklyShiftTypes {
		weeklyTypesPerTier[wt.Tier]++
	}
	undersized := make(map[Tier]bool)
	for tier, types := range weeklyTypesPerTier {
		undersized[tier] = types*len(in.Weeks) > len(in.Rosters.ForTier(tier))*maxWeeklyTurns
	}

	for _, wt := range WeeklyShiftTypes {
		previous := ""
		if in.Continuation.LastWeekly != nil {
			previous = in.Continuation.LastWeekly[wt.Name]
		}
		for _, week := range in.Weeks {
			holder, ok := weeklyHolder(in.Schedule, week, wt)
			if !ok {
				previous = ""
				continue
			}
			turns[holder]++
			if heldTiers[holder] == nil {
				heldTiers[holder] = make(map[Tier]bool)
			}
			heldTiers[holder][wt.Tier] = true
			if holder == previous {
				report.warnf("back-to-back weeks: %s holds %s for consecutive weeks ending %s",
					holder, wt.Name, week.End().Format("2006-01-02"))
			}
			previous = holder
		}
	}

	for _, user := range sortedKeys(turns) {
		if turns[user] <= maxWeeklyTurns {
			continue
		}
		unavoidable := true
		for tier := range heldTiers[user] {
			if !undersized[tier] {
				unavoidable = false
			}
		}
		if unavoidable {
			report.warnf("weekly-shift cap exceeded: %s has %d weekly turns (max %d), roster too small to rotate",
				user, turns[user], maxWeeklyTurns)
		} else {
			report.criticalf("weekly-shift cap violation: %s has %d weekly turns (max %d)",
				user, turns[user], maxWeeklyTurns)
		}
	}
}

// weeklyHolder identifies the user holding a weekly shift type for a week:
// whoever covers the majority of its seven days. Days patched individually
// by the daily assigner don't produce a holder.
func weeklyHolder(sched *Schedule, week Week, wt WeeklyShiftType) (string, bool) {
	counts := make(map[string]int)
	for _, date := range week.Days() {
		if a, ok := sched.Lookup(date, wt.Tier, wt.Slot); ok {
			counts[a.User]++
		}
	}
	for user, n := range counts {
		if n >= 4 {
			return user, true
		}
	}
	return "", false
}

func sortedDates(sched *Schedule) []time.Time {
	dates := make([]time.Time, 0, len(sched.Days))
	for date := range sched.Days {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
