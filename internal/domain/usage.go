package domain

import (
	"sort"
	"time"
)

// UsageRecord is the sum of one resident's washer and dryer cycles for one
// calendar month. It is always derived from bookings at read time and never
// stored.
//
// Name and Apartment are only populated on the admin report.
type UsageRecord struct {
	Owner         string `json:"owner"`
	Month         string `json:"month"` // three-letter label, e.g. "Mar"
	Year          int    `json:"year"`
	SumWasherUses int    `json:"sum_washer_uses"`
	SumDryerUses  int    `json:"sum_dryer_uses"`
	Name          string `json:"name,omitempty"`
	Apartment     string `json:"apartment,omitempty"`
}

// usageKey groups bookings by owner and the calendar month of their start.
type usageKey struct {
	owner string
	year  int
	month time.Month
}

// MonthLabel returns the three-letter English label for m ("Jan" ... "Dec").
func MonthLabel(m time.Month) string {
	return m.String()[:3]
}

// AggregateUsage sums usage counters per (owner, month, year).
//
//   - Only bookings whose start lies in [window.Start, window.End] count.
//   - If owner is non-empty, only that owner's bookings count.
//   - A booking is attributed to the month and year of its start time in loc,
//     even when most of it falls in the following month. This is a known
//     simplification and is kept on purpose.
//
// A nil loc means UTC. The result is never nil and is ordered by year, month
// and owner; callers must not depend on that order.
func AggregateUsage(bookings []Booking, window Interval, owner string, loc *time.Location) []UsageRecord {
	if loc == nil {
		loc = time.UTC
	}

	sums := make(map[usageKey]*UsageRecord)
	for _, b := range bookings {
		if !window.ContainsInstant(b.Interval.Start) {
			continue
		}
		if owner != "" && b.Owner != owner {
			continue
		}
		start := b.Interval.Start.In(loc)
		k := usageKey{owner: b.Owner, year: start.Year(), month: start.Month()}
		rec, ok := sums[k]
		if !ok {
			rec = &UsageRecord{Owner: b.Owner, Month: MonthLabel(k.month), Year: k.year}
			sums[k] = rec
		}
		rec.SumWasherUses += b.WasherUses
		rec.SumDryerUses += b.DryerUses
	}

	keys := make([]usageKey, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.year != b.year {
			return a.year < b.year
		}
		if a.month != b.month {
			return a.month < b.month
		}
		return a.owner < b.owner
	})

	out := make([]UsageRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, *sums[k])
	}
	return out
}
