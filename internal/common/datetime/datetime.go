// Package datetime parses the loosely formatted date and time strings stored
// on appointment records and answers calendar-day questions in a fixed zone.
package datetime

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04 pm",
	"3:04pm",
}

// ParseDate parses s with the accepted date layouts. The wall-clock fields are
// kept as written and placed in loc, so "2025-01-02T23:30:00Z" stays on the 2nd.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), true
		}
	}
	return time.Time{}, false
}

// ParseClock parses a time of day with the accepted clock layouts.
func ParseClock(s string) (hour, minute int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}

// LooseClock splits s on ":" and reads the leading digits of the hour and
// minute parts. Parts without digits read as 0; ok is false when the hour part
// has none.
func LooseClock(s string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	hour, ok = leadingInt(parts[0])
	if len(parts) > 1 {
		minute, _ = leadingInt(parts[1])
	}
	return hour, minute, ok
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Resolve combines a record's date and time strings into one instant in loc.
// Preference: date+time, then date alone, then time on now's day.
func Resolve(date, clock string, now time.Time, loc *time.Location) (time.Time, bool) {
	d, dateOK := ParseDate(date, loc)

	if dateOK && strings.TrimSpace(clock) != "" {
		if h, m, ok := ParseClock(clock); ok {
			return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc), true
		}
	}
	if dateOK {
		return d, true
	}

	h, m, ok := ParseClock(clock)
	if !ok {
		h, m, ok = LooseClock(clock)
	}
	if ok && h < 24 && m < 60 {
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), n.Day(), h, m, 0, 0, loc), true
	}
	return time.Time{}, false
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayDiff is the rounded number of calendar days from now to target, both
// taken in loc.
func DayDiff(target, now time.Time, loc *time.Location) int {
	a := StartOfDay(now.In(loc))
	b := StartOfDay(target.In(loc))
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// Tomorrow returns midnight of the day after now in loc.
func Tomorrow(now time.Time, loc *time.Location) time.Time {
	return StartOfDay(now.In(loc)).AddDate(0, 0, 1)
}

// SameDay compares year, month and day as seen in each value's location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// LoadLocation falls back to UTC for an empty name.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
