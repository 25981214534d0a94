package outbox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tuanvumaihuynh/stock-ledger/pkg/correlationid"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/outbox"
)

func TestHeaders(t *testing.T) {
	t.Run("Should carry correlation id through headers", func(t *testing.T) {
		ctx := correlationid.NewContext(context.Background(), "corr-1")

		headers := outbox.BuildHeaders(ctx)
		assert.Equal(t, "corr-1", headers[correlationid.Header])

		got, ok := correlationid.FromContext(outbox.ExtractContextFromHeaders(context.Background(), headers))
		assert.True(t, ok)
		assert.Equal(t, "corr-1", got)
	})

	t.Run("Should carry correlation id through a kafka record", func(t *testing.T) {
		rec := &kgo.Record{Headers: []kgo.RecordHeader{
			{Key: correlationid.Header, Value: []byte("corr-2")},
		}}

		got, ok := correlationid.FromContext(outbox.ExtractContextFromRecord(context.Background(), rec))
		assert.True(t, ok)
		assert.Equal(t, "corr-2", got)
	})

	t.Run("Should leave context untouched without headers", func(t *testing.T) {
		ctx := outbox.ExtractContextFromRecord(context.Background(), &kgo.Record{})

		_, ok := correlationid.FromContext(ctx)
		assert.False(t, ok)
	})
}
