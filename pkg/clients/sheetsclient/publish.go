package sheetsclient

import (
	"fmt"
	"time"

	"github.com/mfenwick/oncall-roster/pkg/core/engine"
	"github.com/mfenwick/oncall-roster/pkg/export"
)

// PublishSchedule writes a generated month to the spreadsheet as two tabs:
// a per-slot schedule tab and a per-user summary tab. Existing tabs for the
// same month are overwritten.
func (c *Client) PublishSchedule(spreadsheetID string, result *engine.Result) error {
	monthTitle := time.Date(result.Year, result.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")

	scheduleTab := monthTitle
	if _, err := c.EnsureSheet(spreadsheetID, scheduleTab); err != nil {
		return fmt.Errorf("failed to ensure schedule tab: %w", err)
	}

	scheduleValues := [][]interface{}{
		{"Date", "Day", "Schedule", "Shift", "Time", "User", "Tag"},
	}
	for _, row := range export.ScheduleRows(result) {
		scheduleValues = append(scheduleValues, toInterfaceRow(row))
	}
	if err := c.UpdateValues(spreadsheetID, scheduleTab+"!A1", scheduleValues); err != nil {
		return fmt.Errorf("failed to write schedule tab: %w", err)
	}

	summaryTab := monthTitle + " Summary"
	if _, err := c.EnsureSheet(spreadsheetID, summaryTab); err != nil {
		return fmt.Errorf("failed to ensure summary tab: %w", err)
	}

	summaryValues := [][]interface{}{
		{"User", "Month Shifts", "Weekly Turns", "Cumulative Shifts"},
	}
	for _, row := range export.SummaryRows(result) {
		summaryValues = append(summaryValues, toInterfaceRow(row))
	}
	if err := c.UpdateValues(spreadsheetID, summaryTab+"!A1", summaryValues); err != nil {
		return fmt.Errorf("failed to write summary tab: %w", err)
	}

	return nil
}

func toInterfaceRow(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}
