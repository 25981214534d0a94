package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/stock-ledger/internal/config"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/mq"
)

// Service is the event service. It follows the ledger from the outside:
// it logs the audit trail and warns about products running low.
type Service struct {
	cfg        config.Event
	logger     *slog.Logger
	mqConsumer mq.Consumer
}

// New creates a new event service.
func New(
	cfg config.Event,
	logger *slog.Logger,
	mqConsumer mq.Consumer,
) *Service {
	return &Service{
		cfg:        cfg,
		logger:     logger.With(slog.String("service", "event")),
		mqConsumer: mqConsumer,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	if err := registerHandler(s.mqConsumer, TopicProductCreated, s.handleProductCreatedEvent); err != nil {
		return nil, fmt.Errorf("register product created event handler: %w", err)
	}

	if err := registerHandler(s.mqConsumer, TopicStockAdjusted, s.handleStockAdjustedEvent); err != nil {
		return nil, fmt.Errorf("register stock adjusted event handler: %w", err)
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	cleanup := func() {
		mqCleanup()
	}

	return cleanup, nil
}

func registerHandler[E any](c mq.Consumer, topic string, handle func(context.Context, E) error) error {
	return c.RegisterHandler(topic, func(ctx context.Context, topic string, payload []byte) error {
		var ev E
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s event: %w", topic, err)
		}

		if err := handle(ctx, ev); err != nil {
			return fmt.Errorf("handle %s event: %w", topic, err)
		}

		return nil
	})
}
