package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/stock-ledger/internal/config"
	"github.com/tuanvumaihuynh/stock-ledger/internal/relay"
	"github.com/tuanvumaihuynh/stock-ledger/internal/repository"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/mq"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/ptr"
)

type fakeProducer struct {
	mu       sync.Mutex
	produced []mq.ProduceMsg
	failOn   string
	delay    func(mq.ProduceMsg) time.Duration
}

func (p *fakeProducer) Produce(_ context.Context, msg mq.ProduceMsg) error {
	if p.delay != nil {
		time.Sleep(p.delay(msg))
	}
	if msg.Topic == p.failOn {
		return errors.New("broker unavailable")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.produced = append(p.produced, msg)
	return nil
}

func (p *fakeProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.produced)
}

func seedOutbox(t *testing.T, repo repository.OutboxMsgRepository, topic string, n int) {
	t.Helper()
	for range n {
		require.NoError(t, repo.CreateOutboxMsg(context.Background(), repository.CreateOutboxMsgParams{
			Topic:   topic,
			Headers: map[string]string{"k": "v"},
			Payload: json.RawMessage(`{"stock":1}`),
		}))
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRelayBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Should publish and mark messages in batches", func(t *testing.T) {
		mem := repository.NewMemoryDB()
		outboxRepo := repository.NewMemoryOutboxMsgRepository(mem)
		seedOutbox(t, outboxRepo, "stock.adjusted", 3)

		producer := &fakeProducer{}
		svc := relay.NewService(config.Relay{BatchSize: 2, Interval: time.Hour}, newLogger(), mem, outboxRepo, producer)

		n, err := svc.RelayBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = svc.RelayBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = svc.RelayBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		assert.Equal(t, 3, producer.count())
		for _, msg := range mem.OutboxMsgs() {
			assert.True(t, msg.Processed)
			assert.Nil(t, msg.Error)
		}
	})

	t.Run("Should record produce failures on the message", func(t *testing.T) {
		mem := repository.NewMemoryDB()
		outboxRepo := repository.NewMemoryOutboxMsgRepository(mem)
		seedOutbox(t, outboxRepo, "product.created", 1)
		seedOutbox(t, outboxRepo, "stock.adjusted", 1)

		producer := &fakeProducer{failOn: "product.created"}
		svc := relay.NewService(config.Relay{BatchSize: 10, Interval: time.Hour}, newLogger(), mem, outboxRepo, producer)

		n, err := svc.RelayBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		msgs := mem.OutboxMsgs()
		require.Len(t, msgs, 2)
		require.NotNil(t, msgs[0].Error)
		assert.Contains(t, *msgs[0].Error, "broker unavailable")
		assert.Nil(t, msgs[1].Error)
	})
}

func TestRelayBatchOrdering(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryDB()
	outboxRepo := repository.NewMemoryOutboxMsgRepository(mem)

	for seq := 1; seq <= 3; seq++ {
		for _, key := range []string{"product-a", "product-b"} {
			require.NoError(t, outboxRepo.CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
				Topic:        "stock.adjusted",
				Headers:      map[string]string{"seq": strconv.Itoa(seq)},
				Payload:      json.RawMessage(`{}`),
				PartitionKey: ptr.New(key),
			}))
		}
	}

	// the oldest message of each product is the slowest to produce
	producer := &fakeProducer{delay: func(msg mq.ProduceMsg) time.Duration {
		if msg.Headers["seq"] == "1" {
			return 30 * time.Millisecond
		}
		return 0
	}}
	svc := relay.NewService(config.Relay{BatchSize: 10, Interval: time.Hour}, newLogger(), mem, outboxRepo, producer)

	t.Run("Should keep outbox order for messages sharing a partition key", func(t *testing.T) {
		n, err := svc.RelayBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 6, n)

		seqByKey := map[string][]string{}
		producer.mu.Lock()
		for _, msg := range producer.produced {
			seqByKey[*msg.PartitionKey] = append(seqByKey[*msg.PartitionKey], msg.Headers["seq"])
		}
		producer.mu.Unlock()

		assert.Equal(t, []string{"1", "2", "3"}, seqByKey["product-a"])
		assert.Equal(t, []string{"1", "2", "3"}, seqByKey["product-b"])
	})
}

func TestRelayRun(t *testing.T) {
	mem := repository.NewMemoryDB()
	outboxRepo := repository.NewMemoryOutboxMsgRepository(mem)
	seedOutbox(t, outboxRepo, "stock.adjusted", 5)

	producer := &fakeProducer{}
	svc := relay.NewService(config.Relay{BatchSize: 2, Interval: 5 * time.Millisecond}, newLogger(), mem, outboxRepo, producer)

	cleanup := svc.Run(context.Background())
	defer cleanup()

	assert.Eventually(t, func() bool {
		return producer.count() == 5
	}, 2*time.Second, 10*time.Millisecond)
}
