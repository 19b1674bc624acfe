// Package window decides, record by record, whether a review belongs in the
// aggregation: inside the date window and under its day's cap.
package window

import (
	"fmt"

	"steamreviews/pkg/models"
)

// Window is a closed range of unix timestamps
type Window struct {
	Start int64
	End   int64
}

// FromDays builds the window for [start, end] where both bounds are the UTC
// midnight that begins the given day. A record on the end day is therefore
// only inside the window if it is stamped exactly at midnight.
func FromDays(start, end models.DayKey) (Window, error) {
	if _, err := models.ParseDay(start.String()); err != nil {
		return Window{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	if _, err := models.ParseDay(end.String()); err != nil {
		return Window{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}

	w := Window{Start: start.Midnight(), End: end.Midnight()}
	if w.End < w.Start {
		return Window{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return w, nil
}

// Before reports whether ts precedes the window
func (w Window) Before(ts int64) bool {
	return ts < w.Start
}

// After reports whether ts is later than the window
func (w Window) After(ts int64) bool {
	return ts > w.End
}

// Decision is the outcome of filtering one record
type Decision int

const (
	Admit Decision = iota
	SkipFuture
	// SkipPast is never produced by Admit: a record before the window stops
	// the walk instead. It is kept so callers can tally decisions uniformly.
	SkipPast
	SkipCapped
	StopAtBoundary
)

func (d Decision) String() string {
	switch d {
	case Admit:
		return "Admit"
	case SkipFuture:
		return "SkipFuture"
	case SkipPast:
		return "SkipPast"
	case SkipCapped:
		return "SkipCapped"
	case StopAtBoundary:
		return "StopAtBoundary"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Counts exposes how many records have already been admitted per day
type Counts interface {
	Count(day models.DayKey) int
}

// Admit classifies r. Rules apply in order: before the window stops the
// walk, after the window is skipped, a day at cap is skipped, anything else
// is admitted.
func (w Window) Admit(r models.Review, counts Counts, cap int) (Decision, models.DayKey) {
	if w.Before(r.TimestampCreated) {
		return StopAtBoundary, ""
	}
	if w.After(r.TimestampCreated) {
		return SkipFuture, ""
	}

	day := r.Day()
	if counts.Count(day) >= cap {
		return SkipCapped, day
	}
	return Admit, day
}
