// Package handler implements the HTTP handlers for the laundry booking API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, booking.go, usage.go) but share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/laundry-booking/backend/internal/domain"
)

// BookingServicer defines the booking operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type BookingServicer interface {
	Create(ctx context.Context, b domain.Booking) (domain.Booking, error)
	Update(ctx context.Context, caller string, id uuid.UUID, f domain.BookingFields) (int64, error)
	Delete(ctx context.Context, caller string, id uuid.UUID) (int64, error)
	Get(ctx context.Context, caller string, id uuid.UUID) (domain.Booking, error)
	History(ctx context.Context, caller string, id uuid.UUID) ([]domain.Revision, error)
	ListInWindow(ctx context.Context, viewer string, start, end time.Time) ([]domain.Booking, error)
	ListOverlapping(ctx context.Context, start, end time.Time) ([]domain.Booking, error)
}

// UsageServicer defines the usage report operations.
type UsageServicer interface {
	ForResident(ctx context.Context, caller string, start, end time.Time) ([]domain.UsageRecord, error)
	ForAdmin(ctx context.Context, start, end time.Time) ([]domain.UsageRecord, error)
}

// ResidentDirectory resolves a username to its directory entry, which is the
// only source of roles. repo.ResidentRepo satisfies it.
type ResidentDirectory interface {
	Lookup(ctx context.Context, username string) (domain.Resident, error)
}

// Pinger reports whether the database is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies shared by every handler.
type Server struct {
	bookings  BookingServicer
	usage     UsageServicer
	residents ResidentDirectory
	db        Pinger
	log       *slog.Logger
}

// NewServer constructs the Server with all its dependencies. db may be nil,
// in which case /healthz only reports that the process is up.
func NewServer(bookings BookingServicer, usage UsageServicer, residents ResidentDirectory, db Pinger, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{bookings: bookings, usage: usage, residents: residents, db: db, log: log}
}

// Routes returns the API router. Caller identity must already be in the
// request context (see middleware.NewIdentityHandler); this router only
// decides which routes require one.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	// Schedule reads are open to anonymous callers, who see every booking
	// with usage counters zeroed.
	r.Get("/bookings", s.ListBookings)
	r.Get("/bookings/overlapping", s.ListOverlappingBookings)

	r.Group(func(r chi.Router) {
		r.Use(requireCaller)
		r.Post("/bookings", s.CreateBooking)
		r.Get("/bookings/{id}", s.GetBooking)
		r.Put("/bookings/{id}", s.UpdateBooking)
		r.Delete("/bookings/{id}", s.DeleteBooking)
		r.Get("/bookings/{id}/revisions", s.ListBookingRevisions)
		r.Get("/usage", s.GetUsage)
		r.With(s.requireAdmin).Get("/admin/usage", s.GetAdminUsage)
	})

	return r
}
