package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/laundry-booking/backend/internal/domain"
)

// ResidentRepo is the resident directory: it resolves an owner identity to
// the display name and apartment shown next to their bookings, and to the
// role that gates the admin report. The directory is maintained outside this
// service; it is read-only here.
type ResidentRepo interface {
	// Lookup returns the resident with the given username.
	// Returns domain.ErrNotFound if no such resident exists.
	Lookup(ctx context.Context, username string) (domain.Resident, error)
}

// pgResidentRepo is the Postgres implementation of ResidentRepo.
type pgResidentRepo struct {
	db db
}

// NewResidentRepo constructs a ResidentRepo backed by the provided db connection.
func NewResidentRepo(db db) ResidentRepo {
	return &pgResidentRepo{db: db}
}

// Lookup retrieves a resident by username.
func (r *pgResidentRepo) Lookup(ctx context.Context, username string) (domain.Resident, error) {
	const q = `
		SELECT username, name, apartment, role
		FROM residents
		WHERE username = @username`

	res, err := scanResident(r.db.QueryRow(ctx, q, pgx.NamedArgs{"username": username}))
	if err != nil {
		return domain.Resident{}, fmt.Errorf("repo.ResidentRepo.Lookup: %w", err)
	}
	return res, nil
}

// scanResident maps a single database row into a domain.Resident.
func scanResident(s scanner) (domain.Resident, error) {
	var (
		res  domain.Resident
		role string
	)
	if err := s.Scan(&res.Username, &res.Name, &res.Apartment, &role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Resident{}, domain.ErrNotFound
		}
		return domain.Resident{}, err
	}
	res.Role = domain.Role(role)
	return res, nil
}
