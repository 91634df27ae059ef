package domain

import "time"

// Identity is the authenticated user reference handed out by the credential gateway.
// A nil *Identity means nobody is signed in.
type Identity struct {
	UID       string `json:"uid"`
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
	Provider  string `json:"provider,omitempty"`

	IDToken      string    `json:"idToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitzero"`
}

// Expired reports whether the ID token is past expiry, or will be within leeway.
func (i Identity) Expired(now time.Time, leeway time.Duration) bool {
	if i.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(i.ExpiresAt)
}

// CloneIdentity copies id so that receivers never share a pointer with the sender.
func CloneIdentity(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
