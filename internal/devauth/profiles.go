package devauth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/port"
)

const profileKeyPrefix = "profile_"

var _ port.ProfileStore = (*Profiles)(nil)

// Profiles keeps one JSON document per user in a key-value store.
type Profiles struct {
	kv port.KeyValueStore
}

func NewProfiles(kv port.KeyValueStore) *Profiles {
	return &Profiles{kv: kv}
}

func (p *Profiles) GetProfile(ctx context.Context, userID string) (domain.Profile, bool, error) {
	if userID == "" {
		return domain.Profile{}, false, fmt.Errorf("userID is empty")
	}

	raw, ok, err := p.kv.Get(ctx, profileKeyPrefix+userID)
	if err != nil {
		return domain.Profile{}, false, fmt.Errorf("kv.Get: %w", err)
	}
	if !ok {
		return domain.Profile{}, false, nil
	}

	var profile domain.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.Profile{}, false, fmt.Errorf("json.Unmarshal: %w", err)
	}

	return profile, true, nil
}

// SetProfile stores the whole profile. The document has no fields beyond the profile, so merge
// and replace write the same thing.
func (p *Profiles) SetProfile(ctx context.Context, userID string, profile domain.Profile, _ bool) error {
	if userID == "" {
		return fmt.Errorf("userID is empty")
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := p.kv.Set(ctx, profileKeyPrefix+userID, raw); err != nil {
		return fmt.Errorf("kv.Set: %w", err)
	}

	return nil
}

func (p *Profiles) DeleteProfile(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is empty")
	}

	key := profileKeyPrefix + userID

	_, ok, err := p.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("kv.Get: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := p.kv.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("kv.Delete: %w", err)
	}

	return true, nil
}
