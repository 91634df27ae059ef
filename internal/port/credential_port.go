package port

import (
	"context"

	"github.com/nikolayk812/partyshop/internal/domain"
)

// CredentialGateway issues identities and notifies about sign-in state changes.
// Failing calls return a *domain.UserError whose message can be shown to the user.
type CredentialGateway interface {
	// Subscribe delivers the current identity (nil when signed out) right away and again on every change.
	// The channel keeps only the latest value and is closed by unsubscribe.
	Subscribe() (unsubscribe func(), updates <-chan *domain.Identity)

	SignIn(ctx context.Context, email, password string) (domain.Identity, error)
	SignInAnonymously(ctx context.Context) (domain.Identity, error)
	SignUp(ctx context.Context, email, password string) (domain.Identity, error)
	SignOut(ctx context.Context) error
}

// TokenSource hands out a valid bearer token for the signed-in user.
type TokenSource interface {
	IDToken(ctx context.Context) (string, error)
}
