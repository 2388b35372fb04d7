// Package dateparse resolves the optional date argument and computes the
// one-day query window.
package dateparse

import (
	"fmt"
	"log"
	"time"
)

// Layout is the only accepted format for the positional date argument.
const Layout = "2006-01-02"

// Resolve turns an optional YYYY-MM-DD argument into a concrete date in
// loc. An absent or malformed argument falls back to the current time, so
// the caller always gets a usable date. The fallback is silent as far as
// stdout is concerned; a warning goes to the log on stderr.
func Resolve(arg string, loc *time.Location) time.Time {
	if arg == "" {
		return time.Now().In(loc)
	}
	parsed, err := time.ParseInLocation(Layout, arg, loc)
	if err != nil {
		log.Printf("Warning: could not parse date %q, using today", arg)
		return time.Now().In(loc)
	}
	return parsed
}

// Window is the half-open interval [Start, End) covering one calendar day.
type Window struct {
	Start time.Time
	End   time.Time
}

// DayOf computes the window for the calendar day containing date in loc.
// The end bound is derived with calendar-day arithmetic rather than a
// fixed 24-hour add, so the window stays one wall-clock day across DST
// transitions.
func DayOf(date time.Time, loc *time.Location) (Window, error) {
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	if !end.After(start) {
		return Window{}, fmt.Errorf("day window out of range for %s", d.Format(Layout))
	}
	return Window{Start: start, End: end}, nil
}
