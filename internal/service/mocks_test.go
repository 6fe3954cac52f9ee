package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/laundry-booking/backend/internal/domain"
	"github.com/pkordes/laundry-booking/backend/internal/repo"
)

// mockBookingRepo is a hand-written test double for repo.BookingRepo.
// Each method is a function field; set only the ones your test needs.
type mockBookingRepo struct {
	insert          func(ctx context.Context, b domain.Booking) (domain.Booking, error)
	findOverlapping func(ctx context.Context, iv domain.Interval) ([]domain.Booking, error)
	findContained   func(ctx context.Context, iv domain.Interval, owner *string) ([]domain.Booking, error)
	findByID        func(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	update          func(ctx context.Context, id uuid.UUID, owner string, f domain.BookingFields) (int64, error)
	delete          func(ctx context.Context, id uuid.UUID, owner string) (int64, error)
}

func (m *mockBookingRepo) Insert(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	return m.insert(ctx, b)
}
func (m *mockBookingRepo) FindOverlapping(ctx context.Context, iv domain.Interval) ([]domain.Booking, error) {
	return m.findOverlapping(ctx, iv)
}
func (m *mockBookingRepo) FindContained(ctx context.Context, iv domain.Interval, owner *string) ([]domain.Booking, error) {
	return m.findContained(ctx, iv, owner)
}
func (m *mockBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	return m.findByID(ctx, id)
}
func (m *mockBookingRepo) Update(ctx context.Context, id uuid.UUID, owner string, f domain.BookingFields) (int64, error) {
	return m.update(ctx, id, owner, f)
}
func (m *mockBookingRepo) Delete(ctx context.Context, id uuid.UUID, owner string) (int64, error) {
	return m.delete(ctx, id, owner)
}

// compile-time check: mockBookingRepo must satisfy repo.BookingRepo.
var _ repo.BookingRepo = (*mockBookingRepo)(nil)

// mockRevisionRepo is a test double for repo.RevisionRepo.
type mockRevisionRepo struct {
	listByBooking func(ctx context.Context, id uuid.UUID, owner string) ([]domain.Revision, error)
}

func (m *mockRevisionRepo) ListByBooking(ctx context.Context, id uuid.UUID, owner string) ([]domain.Revision, error) {
	return m.listByBooking(ctx, id, owner)
}

var _ repo.RevisionRepo = (*mockRevisionRepo)(nil)

// mockResidentRepo is a test double for repo.ResidentRepo.
type mockResidentRepo struct {
	lookup func(ctx context.Context, username string) (domain.Resident, error)
}

func (m *mockResidentRepo) Lookup(ctx context.Context, username string) (domain.Resident, error) {
	return m.lookup(ctx, username)
}

var _ repo.ResidentRepo = (*mockResidentRepo)(nil)

// recordingPublisher captures published routing keys.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
