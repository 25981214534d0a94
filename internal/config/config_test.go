package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/stock-ledger/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("Should apply defaults", func(t *testing.T) {
		type Config struct {
			Log    config.Log
			HTTP   config.HTTP
			Ledger config.Ledger
			Event  config.Event
			Relay  config.Relay
			Otel   config.Otel
		}

		cfg, err := config.New[Config]()
		require.NoError(t, err)

		assert.Equal(t, config.LogFormatJSON, cfg.Log.Format)
		assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
		assert.Equal(t, uint32(8000), cfg.HTTP.Port)
		assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:5173"}, cfg.HTTP.CorsAllowedOrigins)
		assert.False(t, cfg.HTTP.CorsAllowAll)
		assert.Equal(t, 5*time.Second, cfg.Ledger.OperationTimeout)
		assert.Equal(t, 5, cfg.Event.LowStockThreshold)
		assert.Equal(t, uint32(100), cfg.Relay.BatchSize)
		assert.Equal(t, 10*time.Second, cfg.Relay.ProduceTimeout)
		assert.Equal(t, "stock-ledger", cfg.Otel.ServiceName)
		assert.Empty(t, cfg.Otel.CollectorURL)
	})

	t.Run("Should read environment overrides", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "text")
		t.Setenv("LOG_LEVEL", "DEBUG")
		t.Setenv("HTTP_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
		t.Setenv("LEDGER_OPERATION_TIMEOUT", "250ms")

		type Config struct {
			Log    config.Log
			HTTP   config.HTTP
			Ledger config.Ledger
		}

		cfg, err := config.New[Config]()
		require.NoError(t, err)

		assert.Equal(t, config.LogFormatText, cfg.Log.Format)
		assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CorsAllowedOrigins)
		assert.Equal(t, 250*time.Millisecond, cfg.Ledger.OperationTimeout)
	})

	t.Run("Should fail on missing required values", func(t *testing.T) {
		type Config struct {
			Postgres config.Postgres
		}

		_, err := config.New[Config]()
		assert.Error(t, err)
	})

	t.Run("Should fail on unknown log format", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "xml")

		type Config struct {
			Log config.Log
		}

		_, err := config.New[Config]()
		assert.Error(t, err)
	})
}
