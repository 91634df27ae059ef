package session

import "github.com/nikolayk812/partyshop/internal/domain"

// State is a read-only view of what the manager owns.
type State struct {
	Identity *domain.Identity
	Cart     domain.Cart
	// Loading is true until the persisted cart has been restored.
	Loading bool
	// Version increases with every committed change.
	Version uint64
}

func (s State) SignedIn() bool {
	return s.Identity != nil
}

func cloneState(s State) State {
	return State{
		Identity: domain.CloneIdentity(s.Identity),
		Cart:     s.Cart.Clone(),
		Loading:  s.Loading,
		Version:  s.Version,
	}
}
