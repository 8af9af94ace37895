// Package roster loads tier rosters and parses PTO date ranges into the
// inputs the rotation engine consumes.
package roster

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/mfenwick/oncall-roster/pkg/core/engine"
)

// LoadUsers reads user identifiers from a flat file, one per line.
// Blank lines and surrounding whitespace are ignored.
func LoadUsers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster file: %w", err)
	}
	defer f.Close()

	var users []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			users = append(users, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	return users, nil
}

// PTO date layouts, tried in order. Day-first is the primary format;
// the ISO ordering is accepted for imported data.
var dateLayouts = []string{"02/01/2006", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return engine.Date(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (expected DD/MM/YYYY or YYYY-MM-DD)", s)
}

// ParseDateRange expands a "start-end" range (inclusive) into individual
// dates. A bare single date is accepted as a one-day range.
func ParseDateRange(s string) ([]time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty date range")
	}

	start, end, err := splitRange(s)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("date range %q ends before it starts", s)
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// splitRange separates the start and end dates. The range separator is a
// hyphen, which ISO dates also contain, so the split point is found by
// trying to parse prefixes rather than a blind strings.Split.
func splitRange(s string) (time.Time, time.Time, error) {
	if d, err := parseDate(s); err == nil {
		return d, d, nil
	}
	for i := strings.Index(s, "-"); i >= 0; i = nextHyphen(s, i) {
		start, err := parseDate(s[:i])
		if err != nil {
			continue
		}
		end, err := parseDate(s[i+1:])
		if err != nil {
			continue
		}
		return start, end, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("invalid date range %q (expected DD/MM/YYYY-DD/MM/YYYY)", s)
}

func nextHyphen(s string, from int) int {
	rest := strings.Index(s[from+1:], "-")
	if rest < 0 {
		return -1
	}
	return from + 1 + rest
}

// ParseDateRanges parses a comma-separated list of date ranges
func ParseDateRanges(s string) ([]time.Time, error) {
	var dates []time.Time
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		expanded, err := ParseDateRange(part)
		if err != nil {
			return nil, err
		}
		dates = append(dates, expanded...)
	}
	return dates, nil
}

// ExpandRecurrence expands an RFC 5545 RRULE string into the concrete dates
// it produces within [from, to]. Used for recurring blackout rules like
// "every Friday".
func ExpandRecurrence(rule string, from, to time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", rule, err)
	}
	if r.OrigOptions.Dtstart.IsZero() {
		r.DTStart(from)
	}

	var dates []time.Time
	for _, occ := range r.Between(from, to.AddDate(0, 0, 1), true) {
		dates = append(dates, engine.Date(occ.Year(), occ.Month(), occ.Day()))
	}
	return dates, nil
}

// BuildUnavailable assembles the engine's unavailable set from per-user
// range strings and recurring blackout rules. rangesByUser values are
// comma-separated date ranges; rulesByUser values are RRULE strings expanded
// across the weeks touching the target month.
func BuildUnavailable(rangesByUser map[string]string, rulesByUser map[string][]string, year int, month time.Month) (engine.Unavailable, error) {
	unavail := engine.Unavailable{}

	for user, ranges := range rangesByUser {
		dates, err := ParseDateRanges(ranges)
		if err != nil {
			return nil, fmt.Errorf("PTO for %s: %w", user, err)
		}
		for _, d := range dates {
			unavail.Block(user, d)
		}
	}

	weeks := engine.MonthWeeks(year, month)
	if len(weeks) == 0 {
		return unavail, nil
	}
	from := weeks[0].Start
	to := weeks[len(weeks)-1].End()

	for user, rules := range rulesByUser {
		for _, rule := range rules {
			dates, err := ExpandRecurrence(rule, from, to)
			if err != nil {
				return nil, fmt.Errorf("blackout rule for %s: %w", user, err)
			}
			for _, d := range dates {
				unavail.Block(user, d)
			}
		}
	}

	return unavail, nil
}

// ParseMonth parses a target month in MM/YYYY form
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("01/2006", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q (expected MM/YYYY): %w", s, err)
	}
	return t.Year(), t.Month(), nil
}
