package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateInputForWeek(sched *Schedule) ValidateInput {
	return ValidateInput{
		Schedule: sched,
		Rosters: Rosters{
			Tier2:   []string{"alice", "bob", "carol"},
			Tier3:   []string{"dave", "erin", "frank"},
			Upgrade: []string{"grace", "heidi"},
		},
		Unavailable: Unavailable{},
		Weeks:       []Week{{Start: Date(2027, time.February, 1)}},
		Year:        2027,
		Month:       time.February,
	}
}

// fillWeek covers every slot of the input's weeks so coverage findings don't
// drown out the finding under test
func fillWeek(t *testing.T, sched *Schedule, weeks []Week) {
	t.Helper()
	for _, week := range weeks {
		for _, day := range week.Days() {
			assignIfOpen(sched, day, TierTwo, SlotMorning, "alice")
			assignIfOpen(sched, day, TierTwo, SlotEvening, "bob")
			assignIfOpen(sched, day, TierThree, SlotMorning, "dave")
			assignIfOpen(sched, day, TierThree, SlotEvening, "erin")
			assignIfOpen(sched, day, TierUpgrade, SlotFull, "grace")
		}
	}
}

func assignIfOpen(sched *Schedule, day time.Time, tier Tier, slot Slot, user string) {
	if _, ok := sched.Lookup(day, tier, slot); !ok {
		sched.Assign(day, tier, slot, Assignment{User: user})
	}
}

func findingsContaining(findings []string, subs ...string) int {
	count := 0
	for _, f := range findings {
		match := true
		for _, sub := range subs {
			if !strings.Contains(f, sub) {
				match = false
			}
		}
		if match {
			count++
		}
	}
	return count
}

func TestValidate_PTOViolationIsCritical(t *testing.T) {
	in := validateInputForWeek(NewSchedule())
	fillWeek(t, in.Schedule, in.Weeks)
	in.Unavailable.Block("alice", Date(2027, time.February, 3))

	report := Validate(in)

	require.True(t, report.HasCritical())
	assert.Equal(t, 1, findingsContaining(report.Critical, "PTO violation", "alice", "2027-02-03"))
}

func TestValidate_EmergencyTagExcusesBlockedDate(t *testing.T) {
	in := validateInputForWeek(NewSchedule())
	day := Date(2027, time.February, 3)
	require.NoError(t, in.Schedule.Assign(day, TierTwo, SlotMorning, Assignment{User: "alice", Tag: TagEmergency}))
	fillWeek(t, in.Schedule, in.Weeks)
	in.Unavailable.Block("alice", day)

	report := Validate(in)

	assert.Zero(t, findingsContaining(report.Critical, "PTO violation"))
}

func TestValidate_UpgradeEligibility(t *testing.T) {
	in := validateInputForWeek(NewSchedule())
	day := Date(2027, time.February, 3)
	require.NoError(t, in.Schedule.Assign(day, TierUpgrade, SlotFull, Assignment{User: "alice"}))
	fillWeek(t, in.Schedule, in.Weeks)

	report := Validate(in)

	assert.Equal(t, 1, findingsContaining(report.Critical, "tier eligibility violation", "alice"))

	// An emergency-tagged outsider is allowed
	in = validateInputForWeek(NewSchedule())
	require.NoError(t, in.Schedule.Assign(day, TierUpgrade, SlotFull, Assignment{User: "alice", Tag: TagEmergency}))
	fillWeek(t, in.Schedule, in.Weeks)

	report = Validate(in)
	assert.Zero(t, findingsContaining(report.Critical, "tier eligibility violation"))
}

func TestValidate_OverAssignment(t *testing.T) {
	in := validateInputForWeek(NewSchedule())
	day := Date(2027, time.February, 3)
	require.NoError(t, in.Schedule.Assign(day, TierThree, SlotMorning, Assignment{User: "alice", Tag: TagDouble}))
	fillWeek(t, in.Schedule, in.Weeks)

	report := Validate(in)

	// Two slots in a day is the expected double-shift shape: alice holds
	// tier2 morning via fillWeek plus the tier3 morning above
	assert.Equal(t, 1, findingsContaining(report.Warning, "double assignment", "alice", "tagged double shift"))
	assert.Zero(t, findingsContaining(report.Critical, "over-assignment"))

	// A third slot crosses into requirement-violation territory; stage both
	// tier3 slots before fillWeek claims them
	in = validateInputForWeek(NewSchedule())
	require.NoError(t, in.Schedule.Assign(day, TierThree, SlotMorning, Assignment{User: "alice", Tag: TagDouble}))
	require.NoError(t, in.Schedule.Assign(day, TierThree, SlotEvening, Assignment{User: "alice", Tag: TagDouble}))
	fillWeek(t, in.Schedule, in.Weeks)

	report = Validate(in)
	assert.Equal(t, 1, findingsContaining(report.Critical, "over-assignment", "alice", "3 slots"))
}

func TestValidate_CoverageGaps(t *testing.T) {
	in := validateInputForWeek(NewSchedule())
	fillWeek(t, in.Schedule, in.Weeks)

	// Remove one tier2 slot and one upgrade slot by rebuilding without them
	sched := NewSchedule()
	gapDay := Date(2027, time.February, 5)
	for _, day := range in.Weeks[0].Days() {
		if !day.Equal(gapDay) {
			sched.Assign(day, TierTwo, SlotMorning, Assignment{User: "alice"})
			sched.Assign(day, TierUpgrade, SlotFull, Assignment{User: "grace"})
		}
		sched.Assign(day, TierTwo, SlotEvening, Assignment{User: "bob"})
		sched.Assign(day, TierThree, SlotMorning, Assignment{User: "dave"})
		sched.Assign(day, TierThree, SlotEvening, Assignment{User: "erin"})
	}
	in.Schedule = sched

	report := Validate(in)

	assert.Equal(t, 1, findingsContaining(report.Warning, "coverage gap", "tier2/morning", "2027-02-05"))
	assert.Equal(t, 1, findingsContaining(report.Info, "coverage gap", "upgrade", "2027-02-05"))
}

func TestValidate_FairnessImbalance(t *testing.T) {
	in := validateInputForWeek(NewSchedule())
	in.Weeks = MonthWeeks(2027, time.February)

	// alice works both tier2 slots every single day; bob and carol never work
	sched := NewSchedule()
	for _, week := range in.Weeks {
		for _, day := range week.Days() {
			sched.Assign(day, TierTwo, SlotMorning, Assignment{User: "alice"})
			sched.Assign(day, TierTwo, SlotEvening, Assignment{User: "alice", Tag: TagDouble})
			sched.Assign(day, TierThree, SlotMorning, Assignment{User: "dave"})
			sched.Assign(day, TierThree, SlotEvening, Assignment{User: "erin"})
			sched.Assign(day, TierUpgrade, SlotFull, Assignment{User: "grace"})
		}
	}
	in.Schedule = sched

	report := Validate(in)
	assert.Equal(t, 1, findingsContaining(report.Warning, "fairness imbalance", "alice"))
}

func TestValidate_FairnessExcludesHeavilyAbsentUsers(t *testing.T) {
	in := validateInputForWeek(NewSchedule())
	in.Weeks = MonthWeeks(2027, time.February)

	// Everyone shares the load except carol, who is out most of the month
	sched := NewSchedule()
	users := []string{"alice", "bob", "dave", "erin", "frank"}
	for _, week := range in.Weeks {
		for i, day := range week.Days() {
			sched.Assign(day, TierTwo, SlotMorning, Assignment{User: users[i%len(users)]})
			sched.Assign(day, TierTwo, SlotEvening, Assignment{User: users[(i+1)%len(users)]})
			sched.Assign(day, TierThree, SlotMorning, Assignment{User: users[(i+2)%len(users)]})
			sched.Assign(day, TierThree, SlotEvening, Assignment{User: users[(i+3)%len(users)]})
			sched.Assign(day, TierUpgrade, SlotFull, Assignment{User: "grace"})
		}
	}
	for d := Date(2027, time.February, 1); d.Month() == time.February; d = d.AddDate(0, 0, 1) {
		in.Unavailable.Block("carol", d)
	}
	in.Schedule = sched

	report := Validate(in)

	// carol's zero shifts would otherwise dominate the spread
	assert.Zero(t, findingsContaining(report.Warning, "fairness imbalance", "carol"))
}

func TestValidate_BackToBackWeeks(t *testing.T) {
	in := validateInputForWeek(NewSchedule())
	in.Weeks = []Week{
		{Start: Date(2027, time.February, 1)},
		{Start: Date(2027, time.February, 8)},
	}
	fillWeek(t, in.Schedule, in.Weeks)

	report := Validate(in)

	// fillWeek gives every weekly shift type the same holder both weeks
	assert.Equal(t, 1, findingsContaining(report.Warning, "back-to-back", "grace", "upgrade"))
	assert.Equal(t, 1, findingsContaining(report.Warning, "back-to-back", "dave", "tier3-morning"))
}

func TestValidate_BackToBackAcrossMonthBoundary(t *testing.T) {
	in := validateInputForWeek(NewSchedule())
	fillWeek(t, in.Schedule, in.Weeks)
	in.Continuation = ContinuationState{LastWeekly: map[string]string{"upgrade": "grace"}}

	report := Validate(in)

	assert.Equal(t, 1, findingsContaining(report.Warning, "back-to-back", "grace", "upgrade"))
}

func TestValidate_WeeklyCapViolation(t *testing.T) {
	in := validateInputForWeek(NewSchedule())
	in.Weeks = MonthWeeks(2027, time.February)
	in.Rosters.Tier3 = []string{"dave", "erin", "frank", "hana"}

	// dave holds tier3 morning for three of four weeks despite a roster big
	// enough to rotate
	sched := NewSchedule()
	morningHolders := []string{"dave", "erin", "dave", "dave"}
	for i, week := range in.Weeks {
		for _, day := range week.Days() {
			sched.Assign(day, TierTwo, SlotMorning, Assignment{User: "alice"})
			sched.Assign(day, TierTwo, SlotEvening, Assignment{User: "bob"})
			sched.Assign(day, TierThree, SlotMorning, Assignment{User: morningHolders[i]})
			sched.Assign(day, TierThree, SlotEvening, Assignment{User: "frank"})
			sched.Assign(day, TierUpgrade, SlotFull, Assignment{User: "grace"})
		}
	}
	in.Schedule = sched

	report := Validate(in)

	assert.Equal(t, 1, findingsContaining(report.Critical, "weekly-shift cap violation", "dave", "3 weekly turns"))
}

func TestValidate_UndersizedRosterCapIsWarning(t *testing.T) {
	in := validateInputForWeek(NewSchedule())
	in.Weeks = MonthWeeks(2027, time.February)
	in.Rosters.Upgrade = []string{"grace"}
	fillWeek(t, in.Schedule, in.Weeks)

	report := Validate(in)

	// grace holds all four upgrade weeks but had no alternative
	assert.Zero(t, findingsContaining(report.Critical, "cap violation", "grace"))
	assert.Equal(t, 1, findingsContaining(report.Warning, "cap exceeded", "grace", "roster too small"))
}

func TestWeeklyHolder_RequiresMajority(t *testing.T) {
	week := Week{Start: Date(2027, time.February, 1)}
	sched := NewSchedule()

	// Three days apiece is no majority
	for i, day := range week.Days() {
		user := "alice"
		if i >= 3 {
			user = "bob"
		}
		require.NoError(t, sched.Assign(day, TierThree, SlotMorning, Assignment{User: user}))
	}

	holder, ok := weeklyHolder(sched, week, WeeklyTier3Morning)
	require.True(t, ok)
	assert.Equal(t, "bob", holder)

	// With a day unfilled and a 3/3 split nobody holds the week
	sched = NewSchedule()
	for i, day := range week.Days() {
		if i == 6 {
			break
		}
		user := "alice"
		if i >= 3 {
			user = "bob"
		}
		require.NoError(t, sched.Assign(day, TierThree, SlotMorning, Assignment{User: user}))
	}
	_, ok = weeklyHolder(sched, week, WeeklyTier3Morning)
	assert.False(t, ok)
}
