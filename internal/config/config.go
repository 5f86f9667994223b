// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// DBPath is the SQLite database file; parent directories are created on
	// startup.
	DBPath string `envconfig:"DB_PATH" default:"./data/ledger.db"`

	// JWTSecret signs and verifies API tokens.
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// NotifyWebhookURL enables the webhook broadcaster when set; empty means
	// notifications are disabled.
	NotifyWebhookURL string `envconfig:"NOTIFY_WEBHOOK_URL"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
