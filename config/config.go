package config

import (
	"strings"
	"time"
)

// AppConfig is the shop configuration, loaded from environment variables with
// github.com/caarlos0/env. Each block reads the variables under its prefix:
//   - FIREBASE_: credential gateway and Firestore (auth.go)
//   - STORAGE_: device storage for the cart and session (storage.go)
//   - PROFILE_: profile store backend (storage.go)
//   - LOOKUP_: postal code lookup client (lookup.go)
type AppConfig struct {
	Env      string `env:"APP_ENV"   envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// AuthMode selects the credential gateway: firebase or mock.
	AuthMode AuthMode `env:"AUTH_MODE" envDefault:"mock"`

	Firebase FirebaseConfig `envPrefix:"FIREBASE_"`
	Storage  StorageConfig  `envPrefix:"STORAGE_"`
	Profile  ProfileConfig  `envPrefix:"PROFILE_"`
	Lookup   LookupConfig   `envPrefix:"LOOKUP_"`
	Session  SessionConfig  `envPrefix:"SESSION_"`
}

type SessionConfig struct {
	// SlowRestore is when a cart restore still running at start gets logged. It never cuts the read short.
	SlowRestore time.Duration `env:"SLOW_RESTORE" envDefault:"5s"`
}

// Sanitize applies guardrails to values loaded from env.
func (c *AppConfig) Sanitize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = "dev"
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	c.AuthMode = AuthMode(strings.ToLower(string(c.AuthMode)))
	if c.AuthMode != AuthModeFirebase {
		c.AuthMode = AuthModeMock
	}

	c.Firebase.Sanitize()
	c.Storage.Sanitize()
	c.Profile.Sanitize(c.AuthMode)
	c.Lookup.Sanitize()

	if c.Session.SlowRestore <= 0 {
		c.Session.SlowRestore = 5 * time.Second
	}
}

func (c *AppConfig) IsDev() bool {
	return c.Env == "dev" || c.Env == "development"
}
