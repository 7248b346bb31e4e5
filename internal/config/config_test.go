package config

import (
	"testing"

	"github.com/gabapcia/blockledger/internal/pkg/validator"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, Config{
			LogLevel:        "info",
			RetentionWindow: 10,
			CoinbaseReward:  25,
			EventBuffer:     64,
			RetryAttempts:   3,
			Telemetry: Telemetry{
				ServiceName: "blockledger",
			},
			Redis: Redis{
				Addr:         "localhost:6379",
				Stream:       "blockledger:events",
				StreamMaxLen: 10000,
			},
		}, cfg)
		assert.Equal(t, btcutil.Amount(25), cfg.Reward())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("BLOCKLEDGER_LOG_LEVEL", "debug")
		t.Setenv("BLOCKLEDGER_RETENTION_WINDOW", "4")
		t.Setenv("BLOCKLEDGER_COINBASE_REWARD", "50")
		t.Setenv("BLOCKLEDGER_TELEMETRY_ENABLED", "true")
		t.Setenv("BLOCKLEDGER_TELEMETRY_SERVICE_NAME", "ledger-sim")
		t.Setenv("BLOCKLEDGER_REDIS_ENABLED", "true")
		t.Setenv("BLOCKLEDGER_REDIS_ADDR", "redis.internal:6380")
		t.Setenv("BLOCKLEDGER_REDIS_DB", "2")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 4, cfg.RetentionWindow)
		assert.Equal(t, btcutil.Amount(50), cfg.Reward())
		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "ledger-sim", cfg.Telemetry.ServiceName)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
		assert.Equal(t, 2, cfg.Redis.DB)
	})

	t.Run("malformed value", func(t *testing.T) {
		t.Setenv("BLOCKLEDGER_RETENTION_WINDOW", "ten")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("validation failures", func(t *testing.T) {
		for name, env := range map[string][2]string{
			"retention window below minimum": {"BLOCKLEDGER_RETENTION_WINDOW", "1"},
			"unknown log level":              {"BLOCKLEDGER_LOG_LEVEL", "chatty"},
			"negative reward":                {"BLOCKLEDGER_COINBASE_REWARD", "-1"},
			"empty event buffer":             {"BLOCKLEDGER_EVENT_BUFFER", "0"},
			"zero retry attempts":            {"BLOCKLEDGER_RETRY_ATTEMPTS", "0"},
		} {
			t.Run(name, func(t *testing.T) {
				t.Setenv(env[0], env[1])

				_, err := Load()
				assert.ErrorIs(t, err, validator.ErrValidationFailed)
			})
		}
	})

	t.Run("redis address required when enabled", func(t *testing.T) {
		t.Setenv("BLOCKLEDGER_REDIS_ENABLED", "true")
		t.Setenv("BLOCKLEDGER_REDIS_ADDR", "not-an-address")

		_, err := Load()
		require.ErrorIs(t, err, validator.ErrValidationFailed)
		assert.Contains(t, err.Error(), "Redis.Addr")
	})
}
