package config

import "strings"

type StorageBackend string

const (
	StorageFile   StorageBackend = "file"
	StorageRedis  StorageBackend = "redis"
	StorageMemory StorageBackend = "memory"
)

// StorageConfig is where the device keeps the cart snapshot and the signed-in user.
type StorageConfig struct {
	Backend StorageBackend `env:"BACKEND" envDefault:"file"`
	Dir     string         `env:"DIR"     envDefault:".partyshop"`

	// DeviceID scopes keys in shared backends; generated and kept in Dir when empty.
	DeviceID string `env:"DEVICE_ID"`

	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"`
}

func (c *StorageConfig) Sanitize() {
	switch b := StorageBackend(strings.ToLower(string(c.Backend))); b {
	case StorageFile, StorageRedis, StorageMemory:
		c.Backend = b
	default:
		c.Backend = StorageFile
	}

	if strings.TrimSpace(c.Dir) == "" {
		c.Dir = ".partyshop"
	}
	if c.RedisDB < 0 {
		c.RedisDB = 0
	}
}

type ProfileBackend string

const (
	ProfileFirestore ProfileBackend = "firestore"
	ProfilePostgres  ProfileBackend = "postgres"
	ProfileMemory    ProfileBackend = "memory"
)

type ProfileConfig struct {
	// Backend defaults to firestore with firebase auth and to memory otherwise.
	Backend     ProfileBackend `env:"BACKEND"`
	DatabaseURL string         `env:"DATABASE_URL"`
}

func (c *ProfileConfig) Sanitize(mode AuthMode) {
	switch b := ProfileBackend(strings.ToLower(string(c.Backend))); b {
	case ProfileFirestore, ProfilePostgres, ProfileMemory:
		c.Backend = b
	default:
		c.Backend = ProfileMemory
		if mode == AuthModeFirebase {
			c.Backend = ProfileFirestore
		}
	}
}
