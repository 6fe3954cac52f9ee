package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/laundry-booking/backend/internal/auth"
	"github.com/pkordes/laundry-booking/backend/internal/domain"
	"github.com/pkordes/laundry-booking/backend/internal/handler"
)

// mockBookingServicer is a test double for handler.BookingServicer.
// Set only the method fields your test needs.
type mockBookingServicer struct {
	create          func(ctx context.Context, b domain.Booking) (domain.Booking, error)
	update          func(ctx context.Context, caller string, id uuid.UUID, f domain.BookingFields) (int64, error)
	delete          func(ctx context.Context, caller string, id uuid.UUID) (int64, error)
	get             func(ctx context.Context, caller string, id uuid.UUID) (domain.Booking, error)
	history         func(ctx context.Context, caller string, id uuid.UUID) ([]domain.Revision, error)
	listInWindow    func(ctx context.Context, viewer string, start, end time.Time) ([]domain.Booking, error)
	listOverlapping func(ctx context.Context, start, end time.Time) ([]domain.Booking, error)
}

func (m *mockBookingServicer) Create(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	return m.create(ctx, b)
}
func (m *mockBookingServicer) Update(ctx context.Context, caller string, id uuid.UUID, f domain.BookingFields) (int64, error) {
	return m.update(ctx, caller, id, f)
}
func (m *mockBookingServicer) Delete(ctx context.Context, caller string, id uuid.UUID) (int64, error) {
	return m.delete(ctx, caller, id)
}
func (m *mockBookingServicer) Get(ctx context.Context, caller string, id uuid.UUID) (domain.Booking, error) {
	return m.get(ctx, caller, id)
}
func (m *mockBookingServicer) History(ctx context.Context, caller string, id uuid.UUID) ([]domain.Revision, error) {
	return m.history(ctx, caller, id)
}
func (m *mockBookingServicer) ListInWindow(ctx context.Context, viewer string, start, end time.Time) ([]domain.Booking, error) {
	return m.listInWindow(ctx, viewer, start, end)
}
func (m *mockBookingServicer) ListOverlapping(ctx context.Context, start, end time.Time) ([]domain.Booking, error) {
	return m.listOverlapping(ctx, start, end)
}

// compile-time check: mockBookingServicer must satisfy handler.BookingServicer.
var _ handler.BookingServicer = (*mockBookingServicer)(nil)

// mockUsageServicer is a test double for handler.UsageServicer.
type mockUsageServicer struct {
	forResident func(ctx context.Context, caller string, start, end time.Time) ([]domain.UsageRecord, error)
	forAdmin    func(ctx context.Context, start, end time.Time) ([]domain.UsageRecord, error)
}

func (m *mockUsageServicer) ForResident(ctx context.Context, caller string, start, end time.Time) ([]domain.UsageRecord, error) {
	return m.forResident(ctx, caller, start, end)
}
func (m *mockUsageServicer) ForAdmin(ctx context.Context, start, end time.Time) ([]domain.UsageRecord, error) {
	return m.forAdmin(ctx, start, end)
}

var _ handler.UsageServicer = (*mockUsageServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// mapDirectory is a handler.ResidentDirectory backed by a map.
type mapDirectory map[string]domain.Resident

func (d mapDirectory) Lookup(_ context.Context, username string) (domain.Resident, error) {
	res, ok := d[username]
	if !ok {
		return domain.Resident{}, domain.ErrNotFound
	}
	return res, nil
}

var _ handler.ResidentDirectory = mapDirectory(nil)

var (
	alice  = auth.Identity{Username: "alice"}
	admin  = auth.Identity{Username: "root"}
	nobody = auth.Identity{}

	// directory knows alice as a resident and root as an administrator.
	directory = mapDirectory{
		"alice": {Username: "alice", Name: "Alice", Apartment: "1.tv", Role: domain.RoleResident},
		"root":  {Username: "root", Name: "Board", Apartment: "0", Role: domain.RoleAdmin},
	}
)

// newHTTPHandler wires a Server with the given mocks and runs every request
// as id. An empty identity makes requests anonymous. This mirrors how main.go
// wires the router behind the identity middleware.
func newHTTPHandler(b handler.BookingServicer, u handler.UsageServicer, id auth.Identity) http.Handler {
	return newHTTPHandlerWithDirectory(b, u, directory, id)
}

func newHTTPHandlerWithDirectory(b handler.BookingServicer, u handler.UsageServicer, dir handler.ResidentDirectory, id auth.Identity) http.Handler {
	srv := handler.NewServer(b, u, dir, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	routes := srv.Routes()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id.Username != "" {
			r = r.WithContext(auth.WithIdentity(r.Context(), id))
		}
		routes.ServeHTTP(w, r)
	})
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// at returns 2025-03-10 at the given hour, UTC.
func at(hour int) time.Time {
	return time.Date(2025, 3, 10, hour, 0, 0, 0, time.UTC)
}

func bookingFixture(owner string, startHour, endHour int) domain.Booking {
	return domain.Booking{
		ID:         uuid.New(),
		Interval:   domain.Interval{Start: at(startHour), End: at(endHour)},
		Owner:      owner,
		WasherUses: 2,
		DryerUses:  1,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
}

const windowQuery = "?start=2025-03-10T09:00:00Z&end=2025-03-10T14:00:00Z"
