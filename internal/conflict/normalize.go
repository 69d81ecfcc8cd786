package conflict

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Schedule rows carry dates split across two fields: a day span ("12" or
// "12-14") and a month token ("Mar'24"). Everything is resolved against UTC so
// day enumeration never shifts across a timezone boundary.

// monthTokenRe matches a 3+-letter month abbreviation, an apostrophe and a
// two-digit year, e.g. "Mar'24" or "sept'25".
var monthTokenRe = regexp.MustCompile(`^([A-Za-z]{3,})'(\d{2})$`)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// MalformedRowError marks a schedule row whose date fields could not be
// normalized. Callers log it and skip the row; it never aborts a detection
// pass.
type MalformedRowError struct {
	DayField   string
	MonthField string
	Reason     string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed schedule row (day=%q month=%q): %s", e.DayField, e.MonthField, e.Reason)
}

// ParseMonthYear resolves a token like "Mar'24" to March 2024. Matching is
// case-insensitive and keyed on the first three letters, so "Sept'24" works.
func ParseMonthYear(token string) (time.Month, int, error) {
	m := monthTokenRe.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return 0, 0, fmt.Errorf("month token %q does not match <mon>'<yy>", token)
	}

	month, ok := monthsByPrefix[strings.ToLower(m[1])[:3]]
	if !ok {
		return 0, 0, fmt.Errorf("unknown month abbreviation %q", m[1])
	}

	yy, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, fmt.Errorf("bad year in month token %q", token)
	}

	return month, 2000 + yy, nil
}

// ParseDaySpan resolves "12" to (12, 12) and "12-14" to (12, 14).
func ParseDaySpan(field string) (int, int, error) {
	field = strings.TrimSpace(field)

	parts := strings.SplitN(field, "-", 2)
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad start day %q", parts[0])
	}

	end := start
	if len(parts) == 2 {
		end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, fmt.Errorf("bad end day %q", parts[1])
		}
	}

	if end < start {
		return 0, 0, fmt.Errorf("day span %q ends before it starts", field)
	}

	return start, end, nil
}

// NormalizeRow turns a raw schedule row into an inclusive UTC date range.
func NormalizeRow(dayField, monthYearField string) (time.Time, time.Time, error) {
	month, year, err := ParseMonthYear(monthYearField)
	if err != nil {
		return time.Time{}, time.Time{}, &MalformedRowError{DayField: dayField, MonthField: monthYearField, Reason: err.Error()}
	}

	startDay, endDay, err := ParseDaySpan(dayField)
	if err != nil {
		return time.Time{}, time.Time{}, &MalformedRowError{DayField: dayField, MonthField: monthYearField, Reason: err.Error()}
	}

	start, err := calendarDate(year, month, startDay)
	if err != nil {
		return time.Time{}, time.Time{}, &MalformedRowError{DayField: dayField, MonthField: monthYearField, Reason: err.Error()}
	}
	end, err := calendarDate(year, month, endDay)
	if err != nil {
		return time.Time{}, time.Time{}, &MalformedRowError{DayField: dayField, MonthField: monthYearField, Reason: err.Error()}
	}

	return start, end, nil
}

// calendarDate builds the UTC midnight date and rejects values time.Date would
// silently normalize, e.g. Feb 30.
func calendarDate(year int, month time.Month, day int) (time.Time, error) {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("%d %s %d is not a calendar date", day, month, year)
	}
	return d, nil
}

// DateOnly truncates t to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
