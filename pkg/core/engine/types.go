package engine

import (
	"fmt"
	"time"
)

// Tier identifies a support escalation level
type Tier string

const (
	TierTwo     Tier = "tier2"
	TierThree   Tier = "tier3"
	TierUpgrade Tier = "upgrade"
)

// Slot identifies a shift slot within a day
type Slot string

const (
	SlotMorning Slot = "morning"
	SlotEvening Slot = "evening"
	SlotFull    Slot = "full"
)

// Tag marks a degraded assignment made by the fallback resolver
type Tag string

const (
	TagNone            Tag = ""
	TagDouble          Tag = "DOUBLE"
	TagEmergency       Tag = "EMERGENCY"
	TagEmergencyDouble Tag = "EMERGENCY-DOUBLE"
)

// IsEmergency reports whether the tag marks an emergency-level assignment
func (t Tag) IsEmergency() bool {
	return t == TagEmergency || t == TagEmergencyDouble
}

// Assignment pairs a user with the tag describing how they were assigned.
// Status lives here, never encoded into the user identifier.
type Assignment struct {
	User string
	Tag  Tag
}

// ShiftWindow carries the display times for a tier/slot pairing.
// The assignment logic never reads these; the exporters do.
type ShiftWindow struct {
	Start    string
	End      string
	Timezone string
}

// ShiftWindows maps each tier/slot pairing to its display window
var ShiftWindows = map[Tier]map[Slot]ShiftWindow{
	TierTwo: {
		SlotMorning: {Start: "11:00", End: "17:00", Timezone: "EST"},
		SlotEvening: {Start: "17:00", End: "23:00", Timezone: "EST"},
	},
	TierThree: {
		SlotMorning: {Start: "11:00", End: "17:00", Timezone: "EST"},
		SlotEvening: {Start: "17:00", End: "23:00", Timezone: "EST"},
	},
	TierUpgrade: {
		SlotFull: {Start: "12:00", End: "20:30", Timezone: "EST"},
	},
}

// Date returns a calendar day normalized to midnight UTC.
// All schedule map keys are built through this helper.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaySchedule holds the assignments for one calendar day
type DaySchedule struct {
	Slots map[Tier]map[Slot]Assignment
}

// Schedule is the complete mapping of shift slots to assignments for one run
type Schedule struct {
	Days map[time.Time]*DaySchedule
}

// NewSchedule creates an empty schedule
func NewSchedule() *Schedule {
	return &Schedule{Days: make(map[time.Time]*DaySchedule)}
}

// Assign records an assignment for the given slot.
// Returns an error if the slot already has an assignment (at-most-one invariant).
func (s *Schedule) Assign(date time.Time, tier Tier, slot Slot, a Assignment) error {
	day, ok := s.Days[date]
	if !ok {
		day = &DaySchedule{Slots: make(map[Tier]map[Slot]Assignment)}
		s.Days[date] = day
	}
	if day.Slots[tier] == nil {
		day.Slots[tier] = make(map[Slot]Assignment)
	}
	if existing, ok := day.Slots[tier][slot]; ok {
		return fmt.Errorf("slot %s/%s/%s already assigned to %s", date.Format("2006-01-02"), tier, slot, existing.User)
	}
	day.Slots[tier][slot] = a
	return nil
}

// Lookup returns the assignment for the given slot, if any
func (s *Schedule) Lookup(date time.Time, tier Tier, slot Slot) (Assignment, bool) {
	day, ok := s.Days[date]
	if !ok {
		return Assignment{}, false
	}
	a, ok := day.Slots[tier][slot]
	return a, ok
}

// IsAssigned reports whether the user holds any slot on the given date
func (s *Schedule) IsAssigned(user string, date time.Time) bool {
	day, ok := s.Days[date]
	if !ok {
		return false
	}
	for _, slots := range day.Slots {
		for _, a := range slots {
			if a.User == user {
				return true
			}
		}
	}
	return false
}

// AssignmentsOn returns how many slots the user holds on the given date
func (s *Schedule) AssignmentsOn(user string, date time.Time) int {
	day, ok := s.Days[date]
	if !ok {
		return 0
	}
	count := 0
	for _, slots := range day.Slots {
		for _, a := range slots {
			if a.User == user {
				count++
			}
		}
	}
	return count
}

// Week is a Monday-to-Sunday range. Start is always a Monday.
type Week struct {
	Start time.Time
}

// End returns the Sunday closing the week
func (w Week) End() time.Time {
	return w.Start.AddDate(0, 0, 6)
}

// Days returns the seven dates of the week in order
func (w Week) Days() []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = w.Start.AddDate(0, 0, i)
	}
	return days
}

// MonthWeeks returns every Monday-aligned week touching the given month.
// The first and last weeks may extend into adjacent months.
func MonthWeeks(year int, month time.Month) []Week {
	first := Date(year, month, 1)
	last := first.AddDate(0, 1, -1)

	// Back up to the Monday on or before the first of the month
	offset := (int(first.Weekday()) + 6) % 7
	monday := first.AddDate(0, 0, -offset)

	var weeks []Week
	for !monday.After(last) {
		weeks = append(weeks, Week{Start: monday})
		monday = monday.AddDate(0, 0, 7)
	}
	return weeks
}

// WeeklyShiftType names a shift filled once per week by a single user
type WeeklyShiftType struct {
	Name string
	Tier Tier
	Slot Slot
}

// The three weekly shift types, in assignment order
var (
	WeeklyUpgrade      = WeeklyShiftType{Name: "upgrade", Tier: TierUpgrade, Slot: SlotFull}
	WeeklyTier3Morning = WeeklyShiftType{Name: "tier3-morning", Tier: TierThree, Slot: SlotMorning}
	WeeklyTier3Evening = WeeklyShiftType{Name: "tier3-evening", Tier: TierThree, Slot: SlotEvening}
)

// WeeklyShiftTypes lists the weekly shift types in the order they are assigned
var WeeklyShiftTypes = []WeeklyShiftType{WeeklyUpgrade, WeeklyTier3Morning, WeeklyTier3Evening}

// ContinuationState carries the last weekly-shift incumbents from the month
// immediately before the target month, keyed by weekly shift type name.
// Used to forbid back-to-back weekly assignments across the month boundary.
type ContinuationState struct {
	LastWeekly map[string]string
}

// FallbackEvent records one use of the fallback/escalation ladder
type FallbackEvent struct {
	ID     string
	Date   time.Time
	Tier   Tier
	Slot   Slot
	User   string
	Tag    Tag
	Reason string
}

// Rosters holds the three tier rosters in their loaded order
type Rosters struct {
	Tier2   []string
	Tier3   []string
	Upgrade []string
}

// ForTier returns the roster for the given tier
func (r Rosters) ForTier(tier Tier) []string {
	switch tier {
	case TierTwo:
		return r.Tier2
	case TierThree:
		return r.Tier3
	default:
		return r.Upgrade
	}
}

// CrossTier returns the tier2+tier3 union minus the given tier's own roster,
// preserving roster order. Used by the fallback resolver for borrowing.
func (r Rosters) CrossTier(tier Tier) []string {
	own := make(map[string]bool)
	for _, u := range r.ForTier(tier) {
		own[u] = true
	}
	var pool []string
	seen := make(map[string]bool)
	for _, u := range append(append([]string{}, r.Tier2...), r.Tier3...) {
		if own[u] || seen[u] {
			continue
		}
		seen[u] = true
		pool = append(pool, u)
	}
	return pool
}

// EmergencyPool returns the roster considered for emergency coverage:
// the upgrade roster for upgrade shifts, the tier2+tier3 union otherwise.
func (r Rosters) EmergencyPool(tier Tier) []string {
	if tier == TierUpgrade {
		return append([]string{}, r.Upgrade...)
	}
	var pool []string
	seen := make(map[string]bool)
	for _, u := range append(append([]string{}, r.Tier2...), r.Tier3...) {
		if seen[u] {
			continue
		}
		seen[u] = true
		pool = append(pool, u)
	}
	return pool
}
