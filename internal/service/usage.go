package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkordes/laundry-booking/backend/internal/domain"
	"github.com/pkordes/laundry-booking/backend/internal/repo"
)

// UsageService aggregates bookings into monthly usage reports.
// Reports are read-only and tolerate read-committed consistency: a booking
// committed while a report runs may or may not be counted.
type UsageService struct {
	bookings  repo.BookingRepo
	residents repo.ResidentRepo
	loc       *time.Location
	log       *slog.Logger
}

// NewUsageService constructs a UsageService. Months are computed in loc
// (nil means UTC); a nil logger uses slog.Default().
func NewUsageService(b repo.BookingRepo, r repo.ResidentRepo, loc *time.Location, log *slog.Logger) *UsageService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &UsageService{bookings: b, residents: r, loc: loc, log: log}
}

// ForResident returns the caller's own usage per month for bookings lying in
// [start, end]. An empty window yields an empty, non-nil slice.
func (s *UsageService) ForResident(ctx context.Context, caller string, start, end time.Time) ([]domain.UsageRecord, error) {
	if caller == "" {
		return nil, fmt.Errorf("service.UsageService.ForResident: %w: caller identity is required", domain.ErrValidation)
	}
	window, err := domain.NewWindow(start, end)
	if err != nil {
		return nil, fmt.Errorf("service.UsageService.ForResident: %w", err)
	}

	bookings, err := s.bookings.FindContained(ctx, window, &caller)
	if err != nil {
		return nil, fmt.Errorf("service.UsageService.ForResident: %w", err)
	}
	return domain.AggregateUsage(bookings, window, caller, s.loc), nil
}

// ForAdmin returns every resident's usage per month for bookings lying in
// [start, end], each record joined with the resident's name and apartment.
// A resident missing from the directory keeps empty name and apartment.
func (s *UsageService) ForAdmin(ctx context.Context, start, end time.Time) ([]domain.UsageRecord, error) {
	window, err := domain.NewWindow(start, end)
	if err != nil {
		return nil, fmt.Errorf("service.UsageService.ForAdmin: %w", err)
	}

	bookings, err := s.bookings.FindContained(ctx, window, nil)
	if err != nil {
		return nil, fmt.Errorf("service.UsageService.ForAdmin: %w", err)
	}
	records := domain.AggregateUsage(bookings, window, "", s.loc)

	seen := make(map[string]domain.Resident)
	for i := range records {
		owner := records[i].Owner
		res, ok := seen[owner]
		if !ok {
			res, err = s.residents.Lookup(ctx, owner)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				s.log.WarnContext(ctx, "usage owner missing from directory", "owner", owner)
				res = domain.Resident{Username: owner}
			case err != nil:
				return nil, fmt.Errorf("service.UsageService.ForAdmin: %w", err)
			}
			seen[owner] = res
		}
		records[i].Name = res.Name
		records[i].Apartment = res.Apartment
	}
	return records, nil
}
