package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/stock-ledger/internal/config"
	"github.com/tuanvumaihuynh/stock-ledger/internal/telemetry"
)

func TestInitTracer(t *testing.T) {
	t.Run("Should install propagators without a collector", func(t *testing.T) {
		cleanup, err := telemetry.InitTracer(context.Background(), config.Otel{})
		require.NoError(t, err)
		assert.NoError(t, cleanup(context.Background()))

		fields := otel.GetTextMapPropagator().Fields()
		assert.Contains(t, fields, "traceparent")
		assert.Contains(t, fields, "baggage")
	})

	t.Run("Should create an exporter lazily for a collector", func(t *testing.T) {
		ctx := context.Background()
		cleanup, err := telemetry.InitTracer(ctx, config.Otel{
			ServiceName:  "stock-ledger-test",
			CollectorURL: "127.0.0.1:4317",
			Insecure:     true,
			TraceIDRatio: 1,
		})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		//nolint:errcheck
		cleanup(ctx)
	})
}
