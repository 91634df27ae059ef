package port

import (
	"context"

	"github.com/nikolayk812/partyshop/internal/domain"
)

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, bool, error)
	// SetProfile writes profile; with merge set, data the store holds beyond the profile fields is kept.
	SetProfile(ctx context.Context, userID string, profile domain.Profile, merge bool) error
	DeleteProfile(ctx context.Context, userID string) (bool, error)
}

type AddressLookup interface {
	// Lookup resolves an 8-digit postal code. Unknown codes fail with domain.ErrPostalCodeNotFound.
	Lookup(ctx context.Context, postalCode string) (domain.Address, error)
}
