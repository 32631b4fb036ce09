package campaignd

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig is the daemon configuration read from the environment
type EnvConfig struct {
	// HTTPAddr is the listen address of the HTTP API
	HTTPAddr string `env:"CAMPAIGND_HTTP_ADDR" envDefault:":8080"`

	// LogLevel controls daemon logging (debug, info, warn, error)
	LogLevel string `env:"CAMPAIGND_LOG_LEVEL" envDefault:"info"`

	// StoragePath is the SQLite file for campaign results; empty disables
	// persistence
	StoragePath string `env:"CAMPAIGND_STORAGE_PATH"`

	// CallbackSecret is attached to completion notifications when set
	CallbackSecret string `env:"CAMPAIGND_CALLBACK_SECRET"`
}

// ParseEnv loads the daemon configuration from environment variables
func ParseEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
