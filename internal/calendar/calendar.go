// Package calendar enumerates gas days.
//
// A gas day is represented as a time.Time at 00:00 UTC. Every date entering the
// derivation goes through Day so that equality and map keys behave.
package calendar

import (
	"iter"
	"time"
)

// DateLayout is the YYYY-MM-DD layout used by the CLI and the HTTP API
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date (the date as seen in t's own location)
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a day by n calendar days (n may be negative)
func AddDays(day time.Time, n int) time.Time {
	return Day(day).AddDate(0, 0, n)
}

// EachDay yields every day from from to thru inclusive, ascending.
// from after thru yields nothing. The sequence can be ranged over repeatedly.
func EachDay(from, thru time.Time) iter.Seq[time.Time] {
	start, end := Day(from), Day(thru)
	return func(yield func(time.Time) bool) {
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Count returns the number of days EachDay(from, thru) yields
func Count(from, thru time.Time) int {
	start, end := Day(from), Day(thru)
	if start.After(end) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Parse reads a YYYY-MM-DD date as a gas day
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}
