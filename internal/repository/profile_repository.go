package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/partyshop/internal/db"
	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/port"
)

type profileRepository struct {
	q     *db.Queries
	begin txBeginner
}

func NewProfile(pool *pgxpool.Pool) port.ProfileStore {
	return &profileRepository{
		q:     db.New(pool),
		begin: pool,
	}
}

// NewProfileWithTx runs every statement on tx; replaces nest in a savepoint.
func NewProfileWithTx(tx pgx.Tx) port.ProfileStore {
	return &profileRepository{
		q:     db.New(tx),
		begin: tx,
	}
}

func (r *profileRepository) GetProfile(ctx context.Context, userID string) (domain.Profile, bool, error) {
	if userID == "" {
		return domain.Profile{}, false, fmt.Errorf("userID is empty")
	}

	row, err := r.q.GetProfile(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, false, nil
	}
	if err != nil {
		return domain.Profile{}, false, fmt.Errorf("q.GetProfile: %w", err)
	}

	return mapProfileToDomain(row), true, nil
}

// SetProfile upserts the profile columns when merge is set, keeping attributes and created_at.
// Otherwise the row is replaced as a whole.
func (r *profileRepository) SetProfile(ctx context.Context, userID string, profile domain.Profile, merge bool) error {
	if userID == "" {
		return fmt.Errorf("userID is empty")
	}

	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now()
	}

	if merge {
		if err := r.q.UpsertProfile(ctx, db.UpsertProfileParams(mapProfileToParams(userID, profile))); err != nil {
			return fmt.Errorf("q.UpsertProfile: %w", err)
		}
		return nil
	}

	err := inTx(ctx, r.begin, r.q, func(q *db.Queries) error {
		if _, err := q.DeleteProfile(ctx, userID); err != nil {
			return fmt.Errorf("q.DeleteProfile: %w", err)
		}

		if err := q.InsertProfile(ctx, mapProfileToParams(userID, profile)); err != nil {
			return fmt.Errorf("q.InsertProfile: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("inTx: %w", err)
	}

	return nil
}

func (r *profileRepository) DeleteProfile(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is empty")
	}

	rowsAffected, err := r.q.DeleteProfile(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("q.DeleteProfile: %w", err)
	}

	return rowsAffected > 0, nil
}

func mapProfileToDomain(row db.Profile) domain.Profile {
	return domain.Profile{
		Name:  row.Name,
		TaxID: row.TaxID,
		Phone: row.Phone,
		Address: domain.Address{
			PostalCode:   row.PostalCode,
			Street:       row.Street,
			Number:       row.Number,
			Complement:   row.Complement,
			Neighborhood: row.Neighborhood,
			City:         row.City,
			Region:       row.Region,
		},
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func mapProfileToParams(userID string, p domain.Profile) db.InsertProfileParams {
	return db.InsertProfileParams{
		UserID:       userID,
		Name:         p.Name,
		TaxID:        p.TaxID,
		Phone:        p.Phone,
		PostalCode:   p.Address.PostalCode,
		Street:       p.Address.Street,
		Number:       p.Address.Number,
		Complement:   p.Address.Complement,
		Neighborhood: p.Address.Neighborhood,
		City:         p.Address.City,
		Region:       p.Address.Region,
		UpdatedAt:    p.UpdatedAt,
	}
}
