// Package schedule implements the recurrence calendar for subscription
// order dates. A schedule expression is "<N><unit>" with unit W (weeks)
// or M (months), e.g. "2W" or "1M". Month-based recurrence preserves the
// nth-weekday-of-month pattern of the anchor date: the 2nd Tuesday stays
// the 2nd Tuesday, falling back to the last matching weekday when the
// target month has fewer occurrences.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the canonical order-date format used as part of the
// delivery key. Every date that crosses a store boundary is rendered
// with this layout.
const DateLayout = "2006-01-02"

// ErrInvalidFormat reports a schedule expression that does not match
// the <N><W|M> grammar. Not retryable; the stored expression has to be
// corrected.
var ErrInvalidFormat = errors.New("invalid schedule format")

var expr = regexp.MustCompile(`^(\d+)([MW])$`)

// Unit is the recurrence unit of a schedule expression.
type Unit byte

const (
	UnitWeek  Unit = 'W'
	UnitMonth Unit = 'M'
)

// Schedule is a parsed recurrence expression.
type Schedule struct {
	Count int
	Unit  Unit
}

func (s Schedule) String() string {
	return strconv.Itoa(s.Count) + string(rune(s.Unit))
}

// Parse validates and decomposes a schedule expression.
func Parse(s string) (Schedule, error) {
	m := expr.FindStringSubmatch(s)
	if m == nil {
		return Schedule{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return Schedule{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return Schedule{Count: n, Unit: Unit(m[2][0])}, nil
}

// SameUnit reports whether two expressions share a recurrence unit.
// The second expression is assumed valid; a malformed one never matches.
func (s Schedule) SameUnit(other string) bool {
	return len(other) > 0 && Unit(other[len(other)-1]) == s.Unit
}

// StartOfDay strips the time-of-day in UTC. All comparisons in the
// scheduling engine operate on start-of-day keys.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two instants fall on the same UTC day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// ParseDate parses a canonical yyyy-MM-dd date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a date in the canonical layout.
func FormatDate(t time.Time) string {
	return StartOfDay(t).Format(DateLayout)
}

// WeekdayOccurrence returns which occurrence of its weekday within the
// month the given date is (1-based): the 2nd Friday of March yields 2.
func WeekdayOccurrence(date time.Time) int {
	date = StartOfDay(date)
	// Same weekday dates within a month are exactly 7 days apart.
	return (date.Day()-1)/7 + 1
}

// NthWeekdayOfMonth returns the nth occurrence of weekday within the
// month containing target. When the month has fewer than n occurrences
// it falls back to the last one.
func NthWeekdayOfMonth(target time.Time, weekday time.Weekday, nth int) time.Time {
	target = StartOfDay(target)
	first := time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := first.AddDate(0, 0, offset+(nth-1)*7)
	for day.Month() != first.Month() {
		day = day.AddDate(0, 0, -7)
	}
	return day
}

// NextOccurrence computes the next order date after date according to
// the schedule expression. The input is normalized to start of day.
func NextOccurrence(date time.Time, scheduleExpr string) (time.Time, error) {
	s, err := Parse(scheduleExpr)
	if err != nil {
		return time.Time{}, err
	}
	return next(StartOfDay(date), s), nil
}

// PreviousOccurrence computes the prior order date before date. For
// month schedules the nth-weekday rule applies symmetrically; at
// month-length fallback boundaries Previous(Next(d)) may not return d.
func PreviousOccurrence(date time.Time, scheduleExpr string) (time.Time, error) {
	s, err := Parse(scheduleExpr)
	if err != nil {
		return time.Time{}, err
	}
	return previous(StartOfDay(date), s), nil
}

func next(date time.Time, s Schedule) time.Time {
	if s.Unit == UnitWeek {
		return date.AddDate(0, 0, 7*s.Count)
	}
	target := addMonths(date, s.Count)
	return NthWeekdayOfMonth(target, date.Weekday(), WeekdayOccurrence(date))
}

func previous(date time.Time, s Schedule) time.Time {
	if s.Unit == UnitWeek {
		return date.AddDate(0, 0, -7*s.Count)
	}
	target := addMonths(date, -s.Count)
	return NthWeekdayOfMonth(target, date.Weekday(), WeekdayOccurrence(date))
}

// addMonths shifts to the first day of the month n months away. Using
// the first day avoids time.AddDate's overflow normalization (Jan 31 +
// 1 month must land in February, not March); the caller picks the
// concrete day via NthWeekdayOfMonth.
func addMonths(date time.Time, n int) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
}
