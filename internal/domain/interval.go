package domain

import (
	"fmt"
	"time"
)

// Interval is a half-open time window [Start, End).
type Interval struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// IsValid reports whether Start is strictly before End.
func (iv Interval) IsValid() bool {
	return iv.Start.Before(iv.End)
}

// Overlaps reports whether the two half-open windows intersect.
// A window ending exactly when the other starts does not overlap it.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether other lies fully inside iv, endpoints included.
// Listing and reporting use containment; conflict detection uses Overlaps.
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !iv.End.Before(other.End)
}

// ContainsInstant reports whether t lies in [Start, End].
func (iv Interval) ContainsInstant(t time.Time) bool {
	return !t.Before(iv.Start) && !t.After(iv.End)
}

// NewWindow builds a query window for listing and reporting. Unlike a
// booking interval it may be empty (start == end); only an inverted window is
// rejected.
func NewWindow(start, end time.Time) (Interval, error) {
	if start.After(end) {
		return Interval{}, fmt.Errorf("%w: window start %s is after end %s",
			ErrInvalidInterval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}
