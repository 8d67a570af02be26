package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration, read from the environment.
type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer   string        `envconfig:"JWT_ISSUER" default:"admincore"`
	JWTAudience string        `envconfig:"JWT_AUDIENCE" default:"admincore-api"`
	AccessTTL   time.Duration `envconfig:"JWT_EXPIRES_IN" default:"15m"`
	RefreshTTL  time.Duration `envconfig:"REFRESH_EXPIRES_IN" default:"720h"`
	ResetTTL    time.Duration `envconfig:"RESET_EXPIRES_IN" default:"30m"`

	SeedAdminEmail    string `envconfig:"SEED_ADMIN_EMAIL" default:"admin@admincore.local"`
	SeedAdminPassword string `envconfig:"SEED_ADMIN_PASSWORD" default:""`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, errors.New("JWT_SECRET must be at least 16 bytes")
	}
	return &cfg, nil
}
