package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDetectEmptyAndSingle(t *testing.T) {
	assert.Empty(t, Detect(nil))
	assert.Empty(t, Detect([]Entity{
		{ID: "a", Start: day(2024, time.January, 1), End: day(2024, time.January, 3)},
	}))
}

func TestDetectDisjointRanges(t *testing.T) {
	flagged := Detect([]Entity{
		{ID: "a", Start: day(2024, time.January, 1), End: day(2024, time.January, 3)},
		{ID: "b", Start: day(2024, time.January, 4), End: day(2024, time.January, 6)},
	})
	assert.Empty(t, flagged)
}

func TestDetectSharedBoundaryDay(t *testing.T) {
	// inclusive ranges: Jan 4 belongs to both
	flagged := Detect([]Entity{
		{ID: "a", Start: day(2024, time.January, 1), End: day(2024, time.January, 4)},
		{ID: "b", Start: day(2024, time.January, 4), End: day(2024, time.January, 6)},
	})
	assert.True(t, flagged["a"])
	assert.True(t, flagged["b"])
}

func TestDetectIsSymmetric(t *testing.T) {
	flagged := Detect([]Entity{
		{ID: "a", Start: day(2024, time.March, 12), End: day(2024, time.March, 14)},
		{ID: "b", Start: day(2024, time.March, 13), End: day(2024, time.March, 15)},
		{ID: "c", Start: day(2024, time.March, 20), End: day(2024, time.March, 21)},
	})
	assert.Equal(t, map[string]bool{"a": true, "b": true}, flagged)
}

func TestDetectProposalAgainstScheduleRow(t *testing.T) {
	// P1 spans 2024-03-12..14, schedule row "13-15" in "Mar'24"
	start, end, err := NormalizeRow("13-15", "Mar'24")
	require.NoError(t, err)

	flagged := Detect([]Entity{
		{ID: "P1", Start: day(2024, time.March, 12), End: day(2024, time.March, 14)},
		{ID: "row", Start: start, End: end},
	})
	assert.Equal(t, map[string]bool{"P1": true, "row": true}, flagged)
}

func TestDetectIgnoresInvertedRange(t *testing.T) {
	flagged := Detect([]Entity{
		{ID: "a", Start: day(2024, time.May, 10), End: day(2024, time.May, 5)},
		{ID: "b", Start: day(2024, time.May, 10), End: day(2024, time.May, 10)},
	})
	assert.Empty(t, flagged)
}

func TestDetectNormalizesTimeOfDay(t *testing.T) {
	// time-of-day and zone offsets must not break same-day matching
	loc := time.FixedZone("UTC+7", 7*3600)
	flagged := Detect([]Entity{
		{ID: "a", Start: time.Date(2024, time.April, 2, 23, 30, 0, 0, time.UTC), End: time.Date(2024, time.April, 2, 23, 45, 0, 0, time.UTC)},
		{ID: "b", Start: time.Date(2024, time.April, 3, 6, 0, 0, 0, loc), End: time.Date(2024, time.April, 3, 8, 0, 0, 0, loc)},
	})
	assert.Equal(t, map[string]bool{"a": true, "b": true}, flagged)
}

func TestParseMonthYear(t *testing.T) {
	cases := []struct {
		token string
		month time.Month
		year  int
	}{
		{"Mar'24", time.March, 2024},
		{"mar'24", time.March, 2024},
		{"SEP'25", time.September, 2025},
		{"Sept'25", time.September, 2025},
		{"january'30", time.January, 2030},
	}
	for _, tc := range cases {
		month, year, err := ParseMonthYear(tc.token)
		require.NoError(t, err, tc.token)
		assert.Equal(t, tc.month, month, tc.token)
		assert.Equal(t, tc.year, year, tc.token)
	}
}

func TestParseMonthYearRejectsBadTokens(t *testing.T) {
	for _, token := range []string{"13th'24", "Mar24", "Ma'24", "Mar'2024", "Xyz'24", ""} {
		_, _, err := ParseMonthYear(token)
		assert.Error(t, err, token)
	}
}

func TestParseDaySpan(t *testing.T) {
	start, end, err := ParseDaySpan("12")
	require.NoError(t, err)
	assert.Equal(t, 12, start)
	assert.Equal(t, 12, end)

	start, end, err = ParseDaySpan("12-14")
	require.NoError(t, err)
	assert.Equal(t, 12, start)
	assert.Equal(t, 14, end)

	_, _, err = ParseDaySpan("14-12")
	assert.Error(t, err)
	_, _, err = ParseDaySpan("abc")
	assert.Error(t, err)
	_, _, err = ParseDaySpan("12-xy")
	assert.Error(t, err)
}

func TestNormalizeRow(t *testing.T) {
	start, end, err := NormalizeRow("12-14", "Mar'24")
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.March, 12), start)
	assert.Equal(t, day(2024, time.March, 14), end)
	assert.Equal(t, time.UTC, start.Location())

	start, end, err = NormalizeRow("5", "Jun'25")
	require.NoError(t, err)
	assert.Equal(t, start, end, "single day field means a one-day event")
}

func TestNormalizeRowRejectsImpossibleDates(t *testing.T) {
	_, _, err := NormalizeRow("30", "Feb'24")
	require.Error(t, err)

	var malformed *MalformedRowError
	assert.ErrorAs(t, err, &malformed)

	_, _, err = NormalizeRow("28-31", "Feb'24")
	assert.Error(t, err)
}

func TestNormalizeRowReportsMalformedRowError(t *testing.T) {
	_, _, err := NormalizeRow("12-14", "13th'24")
	require.Error(t, err)

	var malformed *MalformedRowError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "13th'24", malformed.MonthField)
}
