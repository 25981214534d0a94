package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tuanvumaihuynh/stock-ledger/internal/config"
	"github.com/tuanvumaihuynh/stock-ledger/internal/repository"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/db"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/mq"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/outbox"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/ptr"
)

// Service publishes ledger events written to the outbox table.
// Messages are delivered at least once; a failed publish is recorded on the
// row and not retried.
type Service struct {
	cfg           config.Relay
	logger        *slog.Logger
	db            db.DB
	outboxMsgRepo repository.OutboxMsgRepository
	mqProducer    mq.Producer

	stopChan chan struct{}
}

func NewService(
	cfg config.Relay,
	logger *slog.Logger,
	db db.DB,
	outboxMsgRepo repository.OutboxMsgRepository,
	mqProducer mq.Producer,
) *Service {
	return &Service{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "relay")),
		db:            db,
		outboxMsgRepo: outboxMsgRepo,
		mqProducer:    mqProducer,
		stopChan:      make(chan struct{}),
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		s.run(ctx)
	}()

	return func() {
		close(s.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
			cancel()
			<-stoppedChan
		}
		cancel()
	}
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			relayed, err := s.RelayBatch(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "error relaying outbox msgs", slog.Any("error", err))
				continue
			}
			if relayed > 0 {
				s.logger.DebugContext(ctx, "relayed outbox msgs", slog.Int("count", relayed))
			}
		}
	}
}

// RelayBatch publishes one batch of unprocessed outbox messages and marks them
// processed, returning how many were handled.
func (s *Service) RelayBatch(ctx context.Context) (int, error) {
	var relayed int
	err := s.db.WithTx(ctx, func(db db.DB) error {
		outboxMsgs, err := s.outboxMsgRepo.
			WithDB(db).
			ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{
				//nolint:gosec
				BatchSize: int32(s.cfg.BatchSize),
			})
		if err != nil {
			return fmt.Errorf("list unprocessed outbox msgs: %w", err)
		}

		if len(outboxMsgs) == 0 {
			return nil
		}

		s.logger.InfoContext(ctx, "relaying outbox msgs", slog.Int("count", len(outboxMsgs)))

		items := make([]repository.BulkUpdateOutboxMsgsItem, 0, len(outboxMsgs))
		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)

		// messages sharing a partition key keep their outbox order on the topic
		for _, group := range groupByPartitionKey(outboxMsgs) {
			wg.Go(func() {
				for _, msg := range group {
					item := repository.BulkUpdateOutboxMsgsItem{ID: msg.ID}
					if err := s.produce(ctx, msg); err != nil {
						s.logger.ErrorContext(ctx,
							"error producing message",
							slog.String("outbox_msg_id", msg.ID.String()),
							slog.String("topic", msg.Topic),
							slog.Any("error", err),
						)
						item.Error = ptr.New(err.Error())
					}

					mu.Lock()
					items = append(items, item)
					mu.Unlock()
				}
			})
		}

		wg.Wait()

		if err := s.outboxMsgRepo.
			WithDB(db).
			BulkUpdateOutboxMsgs(ctx, repository.BulkUpdateOutboxMsgsParams{
				Items: items,
			}); err != nil {
			return fmt.Errorf("bulk update outbox msgs: %w", err)
		}

		relayed = len(items)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return relayed, nil
}

// groupByPartitionKey splits a batch into runs that must be produced in order.
// Messages without a key have no ordering and each get their own run.
func groupByPartitionKey(msgs []repository.ListUnprocessedOutboxMsgsResult) [][]repository.ListUnprocessedOutboxMsgsResult {
	groups := make([][]repository.ListUnprocessedOutboxMsgsResult, 0, len(msgs))
	byKey := make(map[string]int)
	for _, msg := range msgs {
		if msg.PartitionKey == nil {
			groups = append(groups, []repository.ListUnprocessedOutboxMsgsResult{msg})
			continue
		}
		i, ok := byKey[*msg.PartitionKey]
		if !ok {
			i = len(groups)
			byKey[*msg.PartitionKey] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], msg)
	}
	return groups
}

func (s *Service) produce(ctx context.Context, msg repository.ListUnprocessedOutboxMsgsResult) error {
	// continue the trace of the request that wrote the message
	produceCtx := outbox.ExtractContextFromHeaders(ctx, msg.Headers)
	if s.cfg.ProduceTimeout > 0 {
		var cancel context.CancelFunc
		produceCtx, cancel = context.WithTimeout(produceCtx, s.cfg.ProduceTimeout)
		defer cancel()
	}

	if err := s.mqProducer.Produce(produceCtx, mq.ProduceMsg{
		Topic:        msg.Topic,
		Headers:      msg.Headers,
		Payload:      msg.Payload,
		PartitionKey: msg.PartitionKey,
	}); err != nil {
		return fmt.Errorf("produce message: %w", err)
	}

	return nil
}
