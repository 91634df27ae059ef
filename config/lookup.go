package config

import "time"

// LookupConfig tunes the ViaCEP client.
type LookupConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://viacep.com.br"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"5s"`

	RatePerSecond float64 `env:"RATE_PER_SECOND" envDefault:"5"`
	Burst         int     `env:"BURST"           envDefault:"5"`

	BreakerFailures uint32        `env:"BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout  time.Duration `env:"BREAKER_TIMEOUT"  envDefault:"30s"`
}

func (c *LookupConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RatePerSecond < 0 {
		c.RatePerSecond = 0
	}
	if c.Burst < 1 {
		c.Burst = 1
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = 30 * time.Second
	}
}
