package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/laundry-booking/backend/internal/domain"
)

// RevisionRepo reads the change history of bookings.
// Rows are written by the record_booking_revision trigger, never by this repo.
type RevisionRepo interface {
	// ListByBooking returns the revisions of one booking, oldest first,
	// scoped to owner. A booking owned by someone else yields an empty slice.
	ListByBooking(ctx context.Context, bookingID uuid.UUID, owner string) ([]domain.Revision, error)
}

// pgRevisionRepo is the Postgres implementation of RevisionRepo.
type pgRevisionRepo struct {
	db db
}

// NewRevisionRepo constructs a RevisionRepo backed by the provided db connection.
func NewRevisionRepo(db db) RevisionRepo {
	return &pgRevisionRepo{db: db}
}

func (r *pgRevisionRepo) ListByBooking(ctx context.Context, bookingID uuid.UUID, owner string) ([]domain.Revision, error) {
	const q = `
		SELECT id, booking_id, kind, start_time, end_time, owner, washer_uses, dryer_uses, recorded_at
		FROM booking_revisions
		WHERE booking_id = @booking_id AND owner = @owner
		ORDER BY id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"booking_id": bookingID, "owner": owner})
	if err != nil {
		return nil, fmt.Errorf("repo.RevisionRepo.ListByBooking: %w", err)
	}
	defer rows.Close()

	revs := []domain.Revision{}
	for rows.Next() {
		var (
			rev  domain.Revision
			id   pgtype.UUID
			kind string
		)
		err := rows.Scan(&rev.ID, &id, &kind, &rev.Interval.Start, &rev.Interval.End,
			&rev.Owner, &rev.WasherUses, &rev.DryerUses, &rev.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("repo.RevisionRepo.ListByBooking: scan: %w", err)
		}
		rev.BookingID = uuid.UUID(id.Bytes)
		rev.Kind = domain.RevisionKind(kind)
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RevisionRepo.ListByBooking: rows: %w", err)
	}
	return revs, nil
}
