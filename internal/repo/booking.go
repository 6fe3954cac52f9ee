// Package repo contains all database access logic for the laundry booking API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/laundry-booking/backend/internal/domain"
)

// exclusionViolation is the SQLSTATE Postgres raises when an EXCLUDE
// constraint rejects a row (here: bookings_no_overlap).
const exclusionViolation = "23P01"

// foreignKeyViolation is raised when a booking names an owner missing from
// the residents table.
const foreignKeyViolation = "23503"

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BookingRepo defines the persistence operations for Bookings.
// The service layer depends on this interface, not the concrete Postgres
// implementation, so scheduling rules can be unit-tested without a database.
type BookingRepo interface {
	// Insert persists a new booking and returns it with the store-assigned ID.
	// Returns domain.ErrConflict if the store's exclusion constraint rejects it.
	Insert(ctx context.Context, b domain.Booking) (domain.Booking, error)

	// FindOverlapping returns every booking whose half-open interval intersects iv.
	FindOverlapping(ctx context.Context, iv domain.Interval) ([]domain.Booking, error)

	// FindContained returns bookings lying fully inside iv (endpoints inclusive).
	// A non-nil owner restricts the result to that owner's bookings.
	FindContained(ctx context.Context, iv domain.Interval, owner *string) ([]domain.Booking, error)

	// FindByID returns a single booking. Returns domain.ErrNotFound if absent.
	FindByID(ctx context.Context, id uuid.UUID) (domain.Booking, error)

	// Update overwrites the mutable fields of the booking matching both id and
	// owner and reports the number of rows changed (0 or 1).
	// Returns domain.ErrConflict if the exclusion constraint rejects the change.
	Update(ctx context.Context, id uuid.UUID, owner string, f domain.BookingFields) (int64, error)

	// Delete removes the booking matching both id and owner and reports the
	// number of rows removed (0 or 1).
	Delete(ctx context.Context, id uuid.UUID, owner string) (int64, error)
}

// pgBookingRepo is the Postgres implementation of BookingRepo.
type pgBookingRepo struct {
	db db
}

// NewBookingRepo constructs a BookingRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewBookingRepo(db db) BookingRepo {
	return &pgBookingRepo{db: db}
}

// bookingColumns is the select list understood by scanBooking. Every query
// joins residents so the owner's name and apartment travel with the booking.
const bookingColumns = `
	b.id, b.start_time, b.end_time, b.owner, r.name, r.apartment,
	b.washer_uses, b.dryer_uses, b.created_at, b.updated_at`

// Insert adds a booking row and returns the persisted record joined with its owner.
func (r *pgBookingRepo) Insert(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	const q = `
		WITH b AS (
			INSERT INTO bookings (start_time, end_time, owner, washer_uses, dryer_uses)
			VALUES (@start_time, @end_time, @owner, @washer_uses, @dryer_uses)
			RETURNING *
		)
		SELECT` + bookingColumns + `
		FROM b JOIN residents r ON r.username = b.owner`

	args := pgx.NamedArgs{
		"start_time":  b.Interval.Start,
		"end_time":    b.Interval.End,
		"owner":       b.Owner,
		"washer_uses": b.WasherUses,
		"dryer_uses":  b.DryerUses,
	}

	result, err := scanBooking(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Insert: %w", mapWriteErr(err))
	}
	return result, nil
}

// FindOverlapping returns bookings intersecting iv, ordered by start time.
func (r *pgBookingRepo) FindOverlapping(ctx context.Context, iv domain.Interval) ([]domain.Booking, error) {
	const q = `
		SELECT` + bookingColumns + `
		FROM bookings b JOIN residents r ON r.username = b.owner
		WHERE b.start_time < @end_time AND b.end_time > @start_time
		ORDER BY b.start_time`

	bookings, err := r.list(ctx, q, pgx.NamedArgs{"start_time": iv.Start, "end_time": iv.End})
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.FindOverlapping: %w", err)
	}
	return bookings, nil
}

// FindContained returns bookings fully inside iv, ordered by start time.
func (r *pgBookingRepo) FindContained(ctx context.Context, iv domain.Interval, owner *string) ([]domain.Booking, error) {
	const q = `
		SELECT` + bookingColumns + `
		FROM bookings b JOIN residents r ON r.username = b.owner
		WHERE b.start_time >= @start_time
		  AND @end_time >= b.end_time
		  AND (@owner::varchar IS NULL OR b.owner = @owner)
		ORDER BY b.start_time`

	args := pgx.NamedArgs{
		"start_time": iv.Start,
		"end_time":   iv.End,
		"owner":      owner, // nil becomes NULL
	}

	bookings, err := r.list(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.FindContained: %w", err)
	}
	return bookings, nil
}

// FindByID retrieves a booking by primary key.
func (r *pgBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	const q = `
		SELECT` + bookingColumns + `
		FROM bookings b JOIN residents r ON r.username = b.owner
		WHERE b.id = @id`

	result, err := scanBooking(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.FindByID: %w", err)
	}
	return result, nil
}

// Update changes a booking only when both id and owner match.
func (r *pgBookingRepo) Update(ctx context.Context, id uuid.UUID, owner string, f domain.BookingFields) (int64, error) {
	const q = `
		UPDATE bookings
		SET start_time  = @start_time,
		    end_time    = @end_time,
		    washer_uses = @washer_uses,
		    dryer_uses  = @dryer_uses,
		    updated_at  = now()
		WHERE id = @id AND owner = @owner`

	args := pgx.NamedArgs{
		"id":          id,
		"owner":       owner,
		"start_time":  f.Interval.Start,
		"end_time":    f.Interval.End,
		"washer_uses": f.WasherUses,
		"dryer_uses":  f.DryerUses,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return 0, fmt.Errorf("repo.BookingRepo.Update: %w", mapWriteErr(err))
	}
	return tag.RowsAffected(), nil
}

// Delete removes a booking only when both id and owner match.
func (r *pgBookingRepo) Delete(ctx context.Context, id uuid.UUID, owner string) (int64, error) {
	const q = `DELETE FROM bookings WHERE id = @id AND owner = @owner`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "owner": owner})
	if err != nil {
		return 0, fmt.Errorf("repo.BookingRepo.Delete: %w", err)
	}
	return tag.RowsAffected(), nil
}

// list runs a multi-row booking query. It always returns a non-nil slice.
func (r *pgBookingRepo) list(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return bookings, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanBooking maps a row selected with bookingColumns into a domain.Booking.
func scanBooking(s scanner) (domain.Booking, error) {
	var (
		b  domain.Booking
		id pgtype.UUID
	)

	err := s.Scan(&id, &b.Interval.Start, &b.Interval.End, &b.Owner, &b.OwnerName, &b.OwnerApartment,
		&b.WasherUses, &b.DryerUses, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}

	b.ID = uuid.UUID(id.Bytes)
	return b, nil
}

// mapWriteErr translates constraint violations into domain errors: the
// overlap exclusion becomes domain.ErrConflict and an unknown owner becomes
// domain.ErrValidation. Every other error is returned unchanged.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case exclusionViolation:
		return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
	case foreignKeyViolation:
		return fmt.Errorf("%w: owner is not a registered resident", domain.ErrValidation)
	}
	return err
}
