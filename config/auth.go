package config

import "time"

type AuthMode string

const (
	AuthModeFirebase AuthMode = "firebase"
	// AuthModeMock keeps accounts in device storage, for development and tests.
	AuthModeMock AuthMode = "mock"
)

type FirebaseConfig struct {
	APIKey    string `env:"API_KEY"`
	ProjectID string `env:"PROJECT_ID"`

	// Overridable for emulators.
	AuthURL      string `env:"AUTH_URL"      envDefault:"https://identitytoolkit.googleapis.com"`
	TokenURL     string `env:"TOKEN_URL"     envDefault:"https://securetoken.googleapis.com"`
	FirestoreURL string `env:"FIRESTORE_URL" envDefault:"https://firestore.googleapis.com"`

	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

func (c *FirebaseConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}
