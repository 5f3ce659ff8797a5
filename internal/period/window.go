// Package period computes the canonical calendar windows that decide which
// history records belong to a report. A record belongs to a window based on
// its period end date, with a half-open [From, To) comparison.
package period

import (
	"fmt"
	"time"
)

// Window is a half-open [From, To) date range in UTC. Windows are pure
// values, computed on demand and never persisted.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CurrentWeek returns the canonical week containing now: Monday 00:00 UTC
// through the following Monday 00:00 UTC, exclusive end.
func CurrentWeek(now time.Time) Window {
	now = now.UTC()
	day := now.Truncate(24 * time.Hour)
	// time.Weekday has Sunday == 0; shift so Monday == 0.
	offset := (int(day.Weekday()) + 6) % 7
	from := day.AddDate(0, 0, -offset)
	return Window{From: from, To: from.AddDate(0, 0, 7)}
}

// PreviousWeek returns the canonical week immediately before the one
// containing now.
func PreviousWeek(now time.Time) Window {
	w := CurrentWeek(now)
	return Window{From: w.From.AddDate(0, 0, -7), To: w.To.AddDate(0, 0, -7)}
}

// Custom builds a window from two inclusive dates. When from equals to, the
// window covers that single day.
func Custom(from, to time.Time) Window {
	from = truncateUTC(from)
	to = truncateUTC(to)
	if !to.After(from) {
		to = from
	}
	return Window{From: from, To: to.AddDate(0, 0, 1)}
}

// Contains reports whether a record with the given period end date belongs
// to the window: end >= From && end < To.
func (w Window) Contains(end time.Time) bool {
	end = end.UTC()
	return !end.Before(w.From) && end.Before(w.To)
}

// Days returns the number of days the window spans.
func (w Window) Days() int {
	return int(w.To.Sub(w.From).Hours() / 24)
}

// String returns a compact representation for logs.
func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.From.Format("2006-01-02"), w.To.Format("2006-01-02"))
}

func truncateUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
