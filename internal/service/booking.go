// Package service contains the business logic for the laundry booking API.
// Services validate inputs, enforce scheduling and ownership rules, and
// orchestrate repo calls. No SQL lives here: services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/laundry-booking/backend/internal/domain"
	"github.com/pkordes/laundry-booking/backend/internal/events"
	"github.com/pkordes/laundry-booking/backend/internal/repo"
)

// EventPublisher is the outbound port for booking lifecycle events.
// *events.AMQPPublisher and events.Nop satisfy it.
type EventPublisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// BookingService implements the scheduling rules for bookings: interval
// validity, conflict freedom, and owner-only mutation.
//
// The read-then-write conflict check is not atomic here; the bookings table's
// exclusion constraint rejects whichever of two racing writes commits second,
// and the repo reports that as domain.ErrConflict.
type BookingService struct {
	bookings  repo.BookingRepo
	revisions repo.RevisionRepo
	events    EventPublisher
	log       *slog.Logger
}

// NewBookingService constructs a BookingService. A nil publisher discards
// events; a nil logger uses slog.Default().
func NewBookingService(b repo.BookingRepo, rev repo.RevisionRepo, pub EventPublisher, log *slog.Logger) *BookingService {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &BookingService{bookings: b, revisions: rev, events: pub, log: log}
}

// Create validates a candidate booking and persists it if no existing booking
// overlaps its interval.
// Returns domain.ErrInvalidInterval or domain.ErrValidation for bad input
// (before any store access) and a *domain.ConflictError on overlap.
func (s *BookingService) Create(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	candidate, err := domain.NewBooking(b.Interval, b.Owner, b.WasherUses, b.DryerUses)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", err)
	}

	existing, err := s.bookings.FindOverlapping(ctx, candidate.Interval)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", err)
	}
	if len(existing) > 0 {
		s.log.InfoContext(ctx, "booking rejected: overlaps existing booking",
			"owner", candidate.Owner, "conflicts", len(existing))
		// Conflicting bookings belong to other residents; hide their counters.
		conflict := &domain.ConflictError{Conflicts: domain.VisibleAll(existing, candidate.Owner)}
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", conflict)
	}

	created, err := s.bookings.Insert(ctx, candidate)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", err)
	}

	s.publish(ctx, events.KeyBookingCreated, created)
	return created, nil
}

// Update replaces the interval and counters of the caller's booking and
// returns the number of rows changed.
//
// 0 means the booking does not exist, belongs to someone else, or would
// overlap another booking; callers cannot tell these apart. Invalid input is
// still reported as an error, before any store access.
func (s *BookingService) Update(ctx context.Context, caller string, id uuid.UUID, f domain.BookingFields) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, fmt.Errorf("service.BookingService.Update: %w", err)
	}

	current, err := s.bookings.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.DebugContext(ctx, "update skipped: booking not found", "booking_id", id, "caller", caller)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("service.BookingService.Update: %w", err)
	}
	if current.Owner != caller {
		s.log.DebugContext(ctx, "update skipped: caller is not owner", "booking_id", id, "caller", caller)
		return 0, nil
	}

	overlapping, err := s.bookings.FindOverlapping(ctx, f.Interval)
	if err != nil {
		return 0, fmt.Errorf("service.BookingService.Update: %w", err)
	}
	if others := excluding(overlapping, id); len(others) > 0 {
		s.log.DebugContext(ctx, "update skipped: overlaps other bookings", "booking_id", id, "conflicts", len(others))
		return 0, nil
	}

	rows, err := s.bookings.Update(ctx, id, caller, f)
	if errors.Is(err, domain.ErrConflict) {
		s.log.DebugContext(ctx, "update skipped: rejected by store", "booking_id", id)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("service.BookingService.Update: %w", err)
	}

	if rows > 0 {
		s.publish(ctx, events.KeyBookingUpdated, current.WithFields(f))
	}
	return rows, nil
}

// Delete removes the caller's booking and returns the number of rows removed.
// A booking owned by someone else, or a nonexistent id, yields 0.
func (s *BookingService) Delete(ctx context.Context, caller string, id uuid.UUID) (int64, error) {
	rows, err := s.bookings.Delete(ctx, id, caller)
	if err != nil {
		return 0, fmt.Errorf("service.BookingService.Delete: %w", err)
	}
	if rows > 0 {
		s.publishDeleted(ctx, id, caller)
	}
	return rows, nil
}

// Get returns one of the caller's bookings in full detail.
// Returns domain.ErrNotFound for a booking owned by someone else.
func (s *BookingService) Get(ctx context.Context, caller string, id uuid.UUID) (domain.Booking, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Get: %w", err)
	}
	if b.Owner != caller {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Get: %w", domain.ErrNotFound)
	}
	return b, nil
}

// History returns the change history of one of the caller's bookings, oldest
// first. Always returns a non-nil slice; it is empty for other residents'
// bookings.
func (s *BookingService) History(ctx context.Context, caller string, id uuid.UUID) ([]domain.Revision, error) {
	revs, err := s.revisions.ListByBooking(ctx, id, caller)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.History: %w", err)
	}
	if revs == nil {
		return []domain.Revision{}, nil
	}
	return revs, nil
}

// ListInWindow returns the bookings lying fully inside [start, end] as seen
// by viewer: the viewer's own bookings in full, everyone else's with usage
// counters zeroed.
func (s *BookingService) ListInWindow(ctx context.Context, viewer string, start, end time.Time) ([]domain.Booking, error) {
	window, err := domain.NewWindow(start, end)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.ListInWindow: %w", err)
	}
	bookings, err := s.bookings.FindContained(ctx, window, nil)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.ListInWindow: %w", err)
	}
	return domain.VisibleAll(bookings, viewer), nil
}

// ListOverlapping returns every booking intersecting [start, end) without
// redaction. It backs conflict checks and the schedule view; callers exposing
// the result to residents must apply domain.VisibleAll themselves.
func (s *BookingService) ListOverlapping(ctx context.Context, start, end time.Time) ([]domain.Booking, error) {
	window, err := domain.NewWindow(start, end)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.ListOverlapping: %w", err)
	}
	bookings, err := s.bookings.FindOverlapping(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.ListOverlapping: %w", err)
	}
	if bookings == nil {
		return []domain.Booking{}, nil
	}
	return bookings, nil
}

// excluding returns bookings without the one whose ID is id.
func excluding(bookings []domain.Booking, id uuid.UUID) []domain.Booking {
	out := make([]domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

// publish emits a lifecycle event. Failures are logged and never returned:
// the booking change has already been committed.
func (s *BookingService) publish(ctx context.Context, key string, b domain.Booking) {
	start, end := b.Interval.Start, b.Interval.End
	s.emit(ctx, key, events.BookingEvent{
		BookingID:  b.ID,
		Owner:      b.Owner,
		Start:      &start,
		End:        &end,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *BookingService) publishDeleted(ctx context.Context, id uuid.UUID, owner string) {
	s.emit(ctx, events.KeyBookingDeleted, events.BookingEvent{
		BookingID:  id,
		Owner:      owner,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *BookingService) emit(ctx context.Context, key string, ev events.BookingEvent) {
	if err := s.events.Publish(ctx, key, ev); err != nil {
		s.log.WarnContext(ctx, "publish booking event failed", "key", key, "booking_id", ev.BookingID, "error", err)
	}
}
