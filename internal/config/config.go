// Package config loads the process configuration from BLOCKLEDGER_*
// environment variables.
package config

import (
	"github.com/gabapcia/blockledger/internal/pkg/validator"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix namespaces every variable, e.g. BLOCKLEDGER_LOG_LEVEL.
const envPrefix = "BLOCKLEDGER"

type Telemetry struct {
	Enabled     bool   `split_words:"true" default:"false"`
	ServiceName string `split_words:"true" default:"blockledger" validate:"required_if=Enabled true"`
}

type Redis struct {
	Enabled      bool   `split_words:"true" default:"false"`
	Addr         string `split_words:"true" default:"localhost:6379" validate:"required_if=Enabled true,omitempty,hostname_port"`
	Username     string `split_words:"true"`
	Password     string `split_words:"true"`
	DB           int    `split_words:"true" default:"0" validate:"min=0"`
	Stream       string `split_words:"true" default:"blockledger:events" validate:"required_if=Enabled true"`
	StreamMaxLen int64  `split_words:"true" default:"10000" validate:"min=0"`
}

type Config struct {
	LogLevel        string `split_words:"true" default:"info" validate:"required,loglevel"`
	RetentionWindow int    `split_words:"true" default:"10" validate:"min=2"`
	CoinbaseReward  int64  `split_words:"true" default:"25" validate:"min=0"`
	EventBuffer     int    `split_words:"true" default:"64" validate:"min=1"`
	RetryAttempts   uint   `split_words:"true" default:"3" validate:"min=1"`

	Telemetry Telemetry `split_words:"true"`
	Redis     Redis     `split_words:"true"`
}

// Reward returns the coinbase reward as an amount.
func (c Config) Reward() btcutil.Amount {
	return btcutil.Amount(c.CoinbaseReward)
}

// Load reads the configuration from the environment, applying defaults for
// unset variables, and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}

	if err := validator.Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
