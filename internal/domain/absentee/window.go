package absentee

import (
	"fmt"
	"time"

	"absentee/internal/domain/roster"
)

// Defaults matching the weekly follow-up the report was built for: a
// Sunday-to-Tuesday window, looked at two to eight weeks back.
const (
	DefaultWindowDays = 3
	MinOffset         = 0
	MaxWindowDays     = 7
)

// DefaultOffsets are the weeks-ago offsets used when none are configured.
var DefaultOffsets = []int{2, 3, 4, 5, 6, 7, 8}

// Settings controls which windows a report covers.
type Settings struct {
	Offsets    []int
	WindowDays int
}

// DefaultSettings returns the 2..8 weeks, 3-day window configuration.
func DefaultSettings() Settings {
	return Settings{
		Offsets:    append([]int(nil), DefaultOffsets...),
		WindowDays: DefaultWindowDays,
	}
}

// Validate checks that offsets are non-empty, non-negative and strictly ascending,
// and that the window fits inside one week so neighbouring windows never overlap.
func (s Settings) Validate() error {
	if len(s.Offsets) == 0 {
		return &SettingsError{Message: "at least one weeks-ago offset is required"}
	}
	for i, k := range s.Offsets {
		if k < MinOffset {
			return &SettingsError{Message: fmt.Sprintf("offset %d is negative", k)}
		}
		if i > 0 && k <= s.Offsets[i-1] {
			return &SettingsError{Message: fmt.Sprintf("offsets must be strictly ascending, got %d after %d", k, s.Offsets[i-1])}
		}
	}
	if s.WindowDays < 1 || s.WindowDays > MaxWindowDays {
		return &SettingsError{Message: fmt.Sprintf("window days must be between 1 and %d, got %d", MaxWindowDays, s.WindowDays)}
	}
	return nil
}

// ReferenceSunday returns the Sunday on or immediately before anchor.
// Any weekday is accepted.
// POST: result is a Sunday, result <= anchor, anchor - result < 7 days
func ReferenceSunday(anchor time.Time) time.Time {
	d := roster.DateOnly(anchor)
	// time.Weekday is 0=Sunday..6=Saturday; this is (mondayIndex+1)%7.
	back := int(d.Weekday())
	return d.AddDate(0, 0, -back)
}

// Window is the set of consecutive dates that count as "attended that week".
type Window struct {
	Offset int
	Start  time.Time
	Dates  []time.Time
}

// End returns the last date of the window.
func (w Window) End() time.Time {
	return w.Dates[len(w.Dates)-1]
}

// Contains reports whether the calendar day of d is one of the window dates.
func (w Window) Contains(d time.Time) bool {
	d = roster.DateOnly(d)
	for _, wd := range w.Dates {
		if wd.Equal(d) {
			return true
		}
	}
	return false
}

// Label is the human-readable week identifier, also used as the curation key.
func (w Window) Label() string {
	return WeekLabel(w.Offset, w.Start, w.End())
}

// WeekLabel formats "2 weeks ago (2024-02-25 - 2024-02-27)".
func WeekLabel(offset int, start, end time.Time) string {
	unit := "weeks"
	if offset == 1 {
		unit = "week"
	}
	return fmt.Sprintf("%d %s ago (%s - %s)", offset, unit, start.Format(DateLayout), end.Format(DateLayout))
}

// DateLayout is the date format used in labels and exports.
const DateLayout = "2006-01-02"

// Windows returns one window per offset, in offset order.
// PRE: settings pass Validate
// POST: each window holds WindowDays consecutive dates starting offset weeks before refSunday
func Windows(refSunday time.Time, settings Settings) ([]Window, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	refSunday = roster.DateOnly(refSunday)
	windows := make([]Window, 0, len(settings.Offsets))
	for _, k := range settings.Offsets {
		start := refSunday.AddDate(0, 0, -7*k)
		dates := make([]time.Time, settings.WindowDays)
		for i := range dates {
			dates[i] = start.AddDate(0, 0, i)
		}
		windows = append(windows, Window{Offset: k, Start: start, Dates: dates})
	}
	return windows, nil
}
