// Package export serializes generated schedules to row-oriented tabular
// output: CSV files and Google Sheets tabs.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/mfenwick/oncall-roster/pkg/core/engine"
)

// scheduleHeader is the column layout of the per-slot rows
var scheduleHeader = []string{"Date", "Day", "Schedule", "Shift", "Time", "User", "Tag"}

// summaryHeader is the column layout of the per-user summary rows
var summaryHeader = []string{"User", "Month Shifts", "Weekly Turns", "Cumulative Shifts"}

// ScheduleRows flattens a schedule into date-ordered rows, one per assigned slot
func ScheduleRows(result *engine.Result) [][]string {
	dates := make([]time.Time, 0, len(result.Schedule.Days))
	for date := range result.Schedule.Days {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var rows [][]string
	for _, date := range dates {
		for _, tier := range []engine.Tier{engine.TierTwo, engine.TierThree, engine.TierUpgrade} {
			for _, slot := range slotsForTier(tier) {
				a, ok := result.Schedule.Lookup(date, tier, slot)
				if !ok {
					continue
				}
				window := engine.ShiftWindows[tier][slot]
				rows = append(rows, []string{
					date.Format("2006-01-02"),
					date.Weekday().String(),
					string(tier),
					string(slot),
					fmt.Sprintf("%s-%s %s", window.Start, window.End, window.Timezone),
					a.User,
					string(a.Tag),
				})
			}
		}
	}
	return rows
}

// SummaryRows produces one row per user with their shift accounting
func SummaryRows(result *engine.Result) [][]string {
	users := make([]string, 0, len(result.MonthCounts))
	for user := range result.MonthCounts {
		users = append(users, user)
	}
	sort.Strings(users)

	var rows [][]string
	for _, user := range users {
		rows = append(rows, []string{
			user,
			strconv.Itoa(result.MonthCounts[user]),
			strconv.Itoa(result.WeeklyTurns[user]),
			strconv.Itoa(result.Cumulative[user]),
		})
	}
	return rows
}

// WriteCSV writes the schedule rows followed by a per-user summary section
func WriteCSV(w io.Writer, result *engine.Result) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(scheduleHeader); err != nil {
		return fmt.Errorf("failed to write schedule header: %w", err)
	}
	for _, row := range ScheduleRows(result) {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write schedule row: %w", err)
		}
	}

	// Blank row separates the schedule from the summary section
	if err := writer.Write([]string{""}); err != nil {
		return fmt.Errorf("failed to write separator row: %w", err)
	}
	if err := writer.Write(summaryHeader); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	for _, row := range SummaryRows(result) {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv output: %w", err)
	}
	return nil
}

func slotsForTier(tier engine.Tier) []engine.Slot {
	if tier == engine.TierUpgrade {
		return []engine.Slot{engine.SlotFull}
	}
	return []engine.Slot{engine.SlotMorning, engine.SlotEvening}
}
