// Package calendar provides date and time-of-day arithmetic shared by the
// booking engine. Dates travel as "YYYY-MM-DD" strings and clock times as
// "HH:MM" strings, matching the wire and storage formats.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date format.
const DateLayout = "2006-01-02"

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ValidDate reports whether s is a well-formed "YYYY-MM-DD" date.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// Weekday returns the weekday of a date (Sunday = 0).
func Weekday(date string) (time.Weekday, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}

// IsSunday reports whether the date falls on a Sunday. Malformed dates are
// expected to be rejected before this is called; they report false.
func IsSunday(date string) bool {
	wd, err := Weekday(date)
	return err == nil && wd == time.Sunday
}

// ToMinutes converts "HH:MM" to minutes since midnight.
func ToMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format %q: expected HH:MM", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", clock, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", clock, err)
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q out of range", clock)
	}
	return hour*60 + minute, nil
}

// ValidClock reports whether s is a well-formed "HH:MM" time.
func ValidClock(s string) bool {
	_, err := ToMinutes(s)
	return err == nil
}

// Overlaps tests two half-open minute intervals: [aStart,aEnd) and
// [bStart,bEnd) overlap iff aStart < bEnd && bStart < aEnd.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// ClockOverlaps applies Overlaps to "HH:MM" strings. Unparseable times
// report no overlap; formats are validated upstream.
func ClockOverlaps(aStart, aEnd, bStart, bEnd string) bool {
	as, err := ToMinutes(aStart)
	if err != nil {
		return false
	}
	ae, err := ToMinutes(aEnd)
	if err != nil {
		return false
	}
	bs, err := ToMinutes(bStart)
	if err != nil {
		return false
	}
	be, err := ToMinutes(bEnd)
	if err != nil {
		return false
	}
	return Overlaps(as, ae, bs, be)
}

// AddDays shifts a date by n days (n may be negative).
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// DiffDaysInclusive returns the number of days covered by [start, end],
// counting both endpoints. start == end yields 1.
func DiffDaysInclusive(start, end string) (int, error) {
	s, err := ParseDate(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return 0, err
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}

// InEffectiveRange reports whether date falls inside [from, to]. An empty
// from or to leaves that side unbounded. All three are canonical
// "YYYY-MM-DD" strings, which order lexicographically.
func InEffectiveRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}
