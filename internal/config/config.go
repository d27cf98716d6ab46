// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting of the API process. The JWT secret has
// no default on purpose: it must be supplied by the environment.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`
	Addr string `env:"APP_ADDR" envDefault:":8080"`

	// BaseURL is embedded into verification links sent by email.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	DatabaseDSN string `env:"SQUADHUB_PG_DSN"`

	JWTSecret string        `env:"SQUADHUB_JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"SQUADHUB_TOKEN_TTL" envDefault:"1h"`

	SMTPAddr string `env:"SMTP_ADDR"`
	SMTPFrom string `env:"SMTP_FROM" envDefault:"no-reply@squadhub.org"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`

	RateBurst  int `env:"RATE_BURST" envDefault:"20"`
	RatePerSec int `env:"RATE_PER_SEC" envDefault:"10"`

	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
