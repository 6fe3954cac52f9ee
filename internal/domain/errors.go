package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist, or exists but is not visible to the caller.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing owner, negative usage counter).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidInterval is returned when an interval's start is not strictly
// before its end. It is always detected before the store is touched.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrInvalidInterval = errors.New("invalid interval")

// ErrConflict is returned when a candidate booking overlaps an existing one.
// Handlers should map this to HTTP 409 Conflict.
var ErrConflict = errors.New("booking conflict")

// ConflictError names the bookings a candidate collided with.
// errors.Is(err, ErrConflict) is true for every ConflictError.
type ConflictError struct {
	Conflicts []Booking
}

func (e *ConflictError) Error() string {
	ids := make([]string, 0, len(e.Conflicts))
	for _, b := range e.Conflicts {
		ids = append(ids, b.ID.String())
	}
	return fmt.Sprintf("%s: overlaps %s", ErrConflict, strings.Join(ids, ", "))
}

// Is reports ErrConflict as the sentinel behind every ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
