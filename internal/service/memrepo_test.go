package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/laundry-booking/backend/internal/domain"
	"github.com/pkordes/laundry-booking/backend/internal/repo"
)

// memBookingRepo is an in-memory repo.BookingRepo with the same query
// semantics as the Postgres implementation. It lets scheduling properties be
// tested end to end through the service without a database.
type memBookingRepo struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]domain.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[uuid.UUID]domain.Booking)}
}

// compile-time check: memBookingRepo must satisfy repo.BookingRepo.
var _ repo.BookingRepo = (*memBookingRepo)(nil)

func (m *memBookingRepo) Insert(_ context.Context, b domain.Booking) (domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Mirror the exclusion constraint.
	for _, other := range m.bookings {
		if other.Interval.Overlaps(b.Interval) {
			return domain.Booking{}, domain.ErrConflict
		}
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	m.bookings[b.ID] = b
	return b, nil
}

func (m *memBookingRepo) FindOverlapping(_ context.Context, iv domain.Interval) ([]domain.Booking, error) {
	return m.filter(func(b domain.Booking) bool { return b.Interval.Overlaps(iv) }), nil
}

func (m *memBookingRepo) FindContained(_ context.Context, iv domain.Interval, owner *string) ([]domain.Booking, error) {
	return m.filter(func(b domain.Booking) bool {
		return iv.Contains(b.Interval) && (owner == nil || b.Owner == *owner)
	}), nil
}

func (m *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (m *memBookingRepo) Update(_ context.Context, id uuid.UUID, owner string, f domain.BookingFields) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok || b.Owner != owner {
		return 0, nil
	}
	for otherID, other := range m.bookings {
		if otherID != id && other.Interval.Overlaps(f.Interval) {
			return 0, domain.ErrConflict
		}
	}
	b = b.WithFields(f)
	b.UpdatedAt = time.Now().UTC()
	m.bookings[id] = b
	return 1, nil
}

func (m *memBookingRepo) Delete(_ context.Context, id uuid.UUID, owner string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok || b.Owner != owner {
		return 0, nil
	}
	delete(m.bookings, id)
	return 1, nil
}

// filter returns matching bookings ordered by start time, never nil.
func (m *memBookingRepo) filter(keep func(domain.Booking) bool) []domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.Booking{}
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Interval.Start.Before(out[j].Interval.Start)
	})
	return out
}
