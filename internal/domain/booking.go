// Package domain contains the core data types and rules for the laundry
// booking service: intervals, bookings, visibility and usage aggregation.
// This package has no database or transport dependencies and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Booking reserves the laundry room for an interval and records how many
// washing-machine and tumble-dryer cycles the owner used.
//
// OwnerName and OwnerApartment are joined from the resident directory at
// read time; they are never written by the booking repo.
type Booking struct {
	ID             uuid.UUID `json:"id"`
	Interval       Interval  `json:"interval"`
	Owner          string    `json:"owner"`
	WasherUses     int       `json:"washer_uses"`
	DryerUses      int       `json:"dryer_uses"`
	OwnerName      string    `json:"owner_name,omitempty"`
	OwnerApartment string    `json:"owner_apartment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MaxUses is the largest usage counter a booking can store.
const MaxUses = math.MaxInt16

// BookingFields holds the mutable part of a booking, as supplied to an update.
type BookingFields struct {
	Interval   Interval
	WasherUses int
	DryerUses  int
}

// NewBooking validates its inputs and returns an unpersisted Booking (ID is
// uuid.Nil until the store assigns one).
func NewBooking(iv Interval, owner string, washerUses, dryerUses int) (Booking, error) {
	if strings.TrimSpace(owner) == "" {
		return Booking{}, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	fields := BookingFields{Interval: iv, WasherUses: washerUses, DryerUses: dryerUses}
	if err := fields.Validate(); err != nil {
		return Booking{}, err
	}
	return Booking{
		Interval:   iv,
		Owner:      owner,
		WasherUses: washerUses,
		DryerUses:  dryerUses,
	}, nil
}

// Validate enforces the rules shared by create and update:
//   - the interval must satisfy Start < End;
//   - both usage counters must lie in [0, MaxUses].
func (f BookingFields) Validate() error {
	if !f.Interval.IsValid() {
		return fmt.Errorf("%w: start_time must be before end_time", ErrInvalidInterval)
	}
	if err := validateUses("washer_uses", f.WasherUses); err != nil {
		return err
	}
	return validateUses("dryer_uses", f.DryerUses)
}

func validateUses(field string, n int) error {
	switch {
	case n < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrValidation, field)
	case n > MaxUses:
		return fmt.Errorf("%w: %s must be at most %d", ErrValidation, field, MaxUses)
	}
	return nil
}

// Fields returns the mutable part of b.
func (b Booking) Fields() BookingFields {
	return BookingFields{Interval: b.Interval, WasherUses: b.WasherUses, DryerUses: b.DryerUses}
}

// WithFields returns a copy of b carrying f. It does not validate; callers go
// through the service's Update, which does.
func (b Booking) WithFields(f BookingFields) Booking {
	b.Interval = f.Interval
	b.WasherUses = f.WasherUses
	b.DryerUses = f.DryerUses
	return b
}
