package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Server
	Port int    `env:"PORT" envDefault:"8080"`
	Env  string `env:"APP_ENV" envDefault:"development"`

	// Upstream booking API
	BookingAPIURL     string        `env:"BOOKING_API_URL" envDefault:"http://localhost:3000"`
	BookingAPITimeout time.Duration `env:"BOOKING_API_TIMEOUT" envDefault:"15s"`

	// CORS
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Rate limiting, per client address. X-Forwarded-For and X-Real-IP are
	// honoured only behind a trusted reverse proxy.
	RateLimit  float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateBurst  int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
	TrustProxy bool    `env:"TRUST_PROXY" envDefault:"false"`

	// Editor and wizard sessions untouched for this long are closed and
	// forgotten. Zero disables eviction.
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads a .env file when present and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
