package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func TestParse(t *testing.T) {
	s, err := Parse("2W")
	require.NoError(t, err)
	assert.Equal(t, Schedule{Count: 2, Unit: UnitWeek}, s)

	s, err = Parse("12M")
	require.NoError(t, err)
	assert.Equal(t, Schedule{Count: 12, Unit: UnitMonth}, s)

	for _, bad := range []string{"", "W", "2w", "2D", "W2", "-1W", "1.5M", "2 W"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidFormat, "expression %q", bad)
	}
}

func TestWeekdayOccurrence(t *testing.T) {
	assert.Equal(t, 1, WeekdayOccurrence(date("2025-06-01")))
	assert.Equal(t, 1, WeekdayOccurrence(date("2025-06-07")))
	assert.Equal(t, 2, WeekdayOccurrence(date("2025-06-08")))
	assert.Equal(t, 5, WeekdayOccurrence(date("2025-05-29")))
}

func TestNextOccurrenceWeeks(t *testing.T) {
	got, err := NextOccurrence(date("2025-06-07"), "2W")
	require.NoError(t, err)
	assert.Equal(t, date("2025-06-21"), got)

	// Time-of-day is stripped before computation.
	anchor := time.Date(2025, 6, 7, 17, 30, 12, 0, time.UTC)
	got, err = NextOccurrence(anchor, "1W")
	require.NoError(t, err)
	assert.Equal(t, date("2025-06-14"), got)
}

func TestNextOccurrenceMonthsKeepsOrdinalWeekday(t *testing.T) {
	// 2025-06-07 is the first Saturday of June; one month later the
	// first Saturday of July is 2025-07-05.
	got, err := NextOccurrence(date("2025-06-07"), "1M")
	require.NoError(t, err)
	assert.Equal(t, date("2025-07-05"), got)

	got, err = NextOccurrence(date("2025-06-07"), "2M")
	require.NoError(t, err)
	assert.Equal(t, date("2025-08-02"), got)
}

func TestNextOccurrenceMonthFallbackToLastWeekday(t *testing.T) {
	// 2025-05-29 is the 5th Thursday of May; June 2025 has only four
	// Thursdays, so the recurrence falls back to the last one.
	got, err := NextOccurrence(date("2025-05-29"), "1M")
	require.NoError(t, err)
	assert.Equal(t, date("2025-06-26"), got)
}

func TestPreviousOccurrence(t *testing.T) {
	got, err := PreviousOccurrence(date("2025-06-21"), "2W")
	require.NoError(t, err)
	assert.Equal(t, date("2025-06-07"), got)

	// 2025-07-05 is the first Saturday of July; a month back lands on
	// the first Saturday of June.
	got, err = PreviousOccurrence(date("2025-07-05"), "1M")
	require.NoError(t, err)
	assert.Equal(t, date("2025-06-07"), got)
}

func TestWeekSymmetry(t *testing.T) {
	for _, expr := range []string{"1W", "2W", "3W", "6W"} {
		d := date("2025-01-04")
		for i := 0; i < 40; i++ {
			n, err := NextOccurrence(d, expr)
			require.NoError(t, err)
			p, err := PreviousOccurrence(n, expr)
			require.NoError(t, err)
			assert.Equal(t, d, p, "schedule %s anchor %s", expr, d)
			d = n
		}
	}
}

func TestNthWeekdayOfMonth(t *testing.T) {
	// Third Monday of June 2025.
	assert.Equal(t, date("2025-06-16"), NthWeekdayOfMonth(date("2025-06-01"), time.Monday, 3))
	// No 5th Thursday in June 2025: fall back to the last one.
	assert.Equal(t, date("2025-06-26"), NthWeekdayOfMonth(date("2025-06-01"), time.Thursday, 5))
}

func TestDateHelpers(t *testing.T) {
	d, err := ParseDate("2025-06-07")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-07", FormatDate(d))

	_, err = ParseDate("06/07/2025")
	assert.Error(t, err)

	assert.True(t, SameDay(time.Date(2025, 6, 7, 23, 59, 0, 0, time.UTC), d))
	assert.False(t, SameDay(d.AddDate(0, 0, 1), d))
}
