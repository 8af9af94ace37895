package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthWeeks_MonthStartingOnMonday(t *testing.T) {
	// February 2027 starts on a Monday and has exactly 28 days
	weeks := MonthWeeks(2027, time.February)

	require.Len(t, weeks, 4)
	assert.Equal(t, Date(2027, time.February, 1), weeks[0].Start)
	assert.Equal(t, Date(2027, time.February, 22), weeks[3].Start)
	assert.Equal(t, Date(2027, time.February, 28), weeks[3].End())
}

func TestMonthWeeks_SpansIntoAdjacentMonths(t *testing.T) {
	// September 2025 starts on a Monday but ends on a Tuesday, so the last
	// week runs into October
	weeks := MonthWeeks(2025, time.September)

	require.Len(t, weeks, 5)
	assert.Equal(t, Date(2025, time.September, 29), weeks[4].Start)
	assert.Equal(t, Date(2025, time.October, 5), weeks[4].End())

	// March 2025 starts on a Saturday, so the first week reaches back into
	// February
	weeks = MonthWeeks(2025, time.March)

	require.Len(t, weeks, 6)
	assert.Equal(t, Date(2025, time.February, 24), weeks[0].Start)
	for _, week := range weeks {
		assert.Equal(t, time.Monday, week.Start.Weekday())
	}
}

func TestWeek_Days(t *testing.T) {
	week := Week{Start: Date(2027, time.February, 1)}
	days := week.Days()

	require.Len(t, days, 7)
	assert.Equal(t, Date(2027, time.February, 1), days[0])
	assert.Equal(t, Date(2027, time.February, 7), days[6])
}

func TestSchedule_AssignRejectsDuplicateSlot(t *testing.T) {
	sched := NewSchedule()
	date := Date(2027, time.February, 3)

	err := sched.Assign(date, TierTwo, SlotMorning, Assignment{User: "alice"})
	require.NoError(t, err)

	err = sched.Assign(date, TierTwo, SlotMorning, Assignment{User: "bob"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already assigned")

	// The original assignment survives
	a, ok := sched.Lookup(date, TierTwo, SlotMorning)
	require.True(t, ok)
	assert.Equal(t, "alice", a.User)
}

func TestSchedule_IsAssignedAndAssignmentsOn(t *testing.T) {
	sched := NewSchedule()
	date := Date(2027, time.February, 3)

	require.NoError(t, sched.Assign(date, TierTwo, SlotMorning, Assignment{User: "alice"}))
	require.NoError(t, sched.Assign(date, TierThree, SlotEvening, Assignment{User: "alice", Tag: TagDouble}))

	assert.True(t, sched.IsAssigned("alice", date))
	assert.False(t, sched.IsAssigned("bob", date))
	assert.Equal(t, 2, sched.AssignmentsOn("alice", date))
	assert.Equal(t, 0, sched.AssignmentsOn("alice", Date(2027, time.February, 4)))
}

func TestRosters_CrossTier(t *testing.T) {
	rosters := Rosters{
		Tier2:   []string{"alice", "bob", "carol"},
		Tier3:   []string{"carol", "dave"},
		Upgrade: []string{"erin"},
	}

	// Borrowing for tier2 draws from tier3 users not already on tier2,
	// preserving order and deduplicating
	assert.Equal(t, []string{"dave"}, rosters.CrossTier(TierTwo))
	assert.Equal(t, []string{"alice", "bob"}, rosters.CrossTier(TierThree))
}

func TestRosters_EmergencyPool(t *testing.T) {
	rosters := Rosters{
		Tier2:   []string{"alice", "bob"},
		Tier3:   []string{"bob", "carol"},
		Upgrade: []string{"dave"},
	}

	assert.Equal(t, []string{"alice", "bob", "carol"}, rosters.EmergencyPool(TierTwo))
	assert.Equal(t, []string{"alice", "bob", "carol"}, rosters.EmergencyPool(TierThree))
	assert.Equal(t, []string{"dave"}, rosters.EmergencyPool(TierUpgrade))
}

func TestTag_IsEmergency(t *testing.T) {
	assert.False(t, TagNone.IsEmergency())
	assert.False(t, TagDouble.IsEmergency())
	assert.True(t, TagEmergency.IsEmergency())
	assert.True(t, TagEmergencyDouble.IsEmergency())
}
