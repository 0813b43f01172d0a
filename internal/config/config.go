// Package config loads client configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// BrieflyAI API
	APIBaseURL  string        `envconfig:"BRIEFLY_API_URL" default:"http://localhost:8787/api"`
	HTTPTimeout time.Duration `envconfig:"BRIEFLY_HTTP_TIMEOUT" default:"30s"`

	// Session token for the API. Usually injected by the auth collaborator;
	// set directly when developing against the stub server.
	SessionToken string `envconfig:"BRIEFLY_SESSION_TOKEN"`

	// Chat rides the same transport but waits on the assistant, so it gets
	// a longer deadline.
	ChatTimeout time.Duration `envconfig:"BRIEFLY_CHAT_TIMEOUT" default:"120s"`

	// Stub server (brieflyd)
	StubListenAddr string        `envconfig:"BRIEFLYD_LISTEN_ADDR" default:":8787"`
	StubJWTSecret  string        `envconfig:"BRIEFLYD_JWT_SECRET" default:"brieflyai-secret"`
	StubSeedFile   string        `envconfig:"BRIEFLYD_SEED_FILE"`
	StubTokenTTL   time.Duration `envconfig:"BRIEFLYD_TOKEN_TTL" default:"24h"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Development returns true when running in the development environment.
func (c *Config) Development() bool {
	return c.Environment == "development"
}
