package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/db"
)

type memoryOutboxMsg struct {
	ID           uuid.UUID
	Topic        string
	Headers      map[string]string
	Payload      json.RawMessage
	PartitionKey *string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
	Error        *string
}

type memoryOutboxMsgRepository struct {
	h memoryHandle
}

// NewMemoryOutboxMsgRepository returns an OutboxMsgRepository over a MemoryDB.
func NewMemoryOutboxMsgRepository(db *MemoryDB) OutboxMsgRepository {
	return &memoryOutboxMsgRepository{h: db}
}

func (r memoryOutboxMsgRepository) WithDB(db db.DB) OutboxMsgRepository {
	return &memoryOutboxMsgRepository{h: memoryOf(db)}
}

func (r memoryOutboxMsgRepository) CreateOutboxMsg(ctx context.Context, params CreateOutboxMsgParams) error {
	release, err := r.h.enter(ctx)
	if err != nil {
		return err
	}
	defer release()
	if !json.Valid(params.Payload) {
		return fmt.Errorf("outbox msg create: payload is not valid json")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate uuid v7: %w", err)
	}

	msg := &memoryOutboxMsg{
		ID:           id,
		Topic:        params.Topic,
		Headers:      maps.Clone(params.Headers),
		Payload:      params.Payload,
		PartitionKey: params.PartitionKey,
		CreatedAt:    time.Now(),
	}

	m := r.h.memory()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outboxMsgs = append(m.outboxMsgs, msg)

	r.h.onRollback(func() {
		for i, o := range m.outboxMsgs {
			if o == msg {
				m.outboxMsgs = append(m.outboxMsgs[:i], m.outboxMsgs[i+1:]...)
				return
			}
		}
	})

	return nil
}

func (r memoryOutboxMsgRepository) ListUnprocessedOutboxMsgs(ctx context.Context, params ListUnprocessedOutboxMsgsParams) ([]ListUnprocessedOutboxMsgsResult, error) {
	release, err := r.h.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	m := r.h.memory()
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]ListUnprocessedOutboxMsgsResult, 0)
	for _, msg := range m.outboxMsgs {
		if int32(len(results)) >= params.BatchSize {
			break
		}
		if msg.ProcessedAt != nil {
			continue
		}

		headers := maps.Clone(msg.Headers)
		if headers == nil {
			headers = map[string]string{}
		}

		results = append(results, ListUnprocessedOutboxMsgsResult{
			ID:           msg.ID,
			Topic:        msg.Topic,
			Headers:      headers,
			Payload:      msg.Payload,
			PartitionKey: msg.PartitionKey,
		})
	}

	return results, nil
}

func (r memoryOutboxMsgRepository) BulkUpdateOutboxMsgs(ctx context.Context, params BulkUpdateOutboxMsgsParams) error {
	release, err := r.h.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	byID := make(map[uuid.UUID]*string, len(params.Items))
	for _, item := range params.Items {
		byID[item.ID] = item.Error
	}

	m := r.h.memory()
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, msg := range m.outboxMsgs {
		msgErr, ok := byID[msg.ID]
		if !ok {
			continue
		}

		prevProcessedAt, prevErr := msg.ProcessedAt, msg.Error
		msg.ProcessedAt = &now
		msg.Error = msgErr

		r.h.onRollback(func() {
			msg.ProcessedAt, msg.Error = prevProcessedAt, prevErr
		})
	}

	return nil
}

// OutboxMsgSnapshot is a read-only view of a stored outbox message.
type OutboxMsgSnapshot struct {
	ID        uuid.UUID
	Topic     string
	Headers   map[string]string
	Payload   json.RawMessage
	Processed bool
	Error     *string
}

// OutboxMsgs returns every outbox message in insertion order, processed or not.
func (m *MemoryDB) OutboxMsgs() []OutboxMsgSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshots := make([]OutboxMsgSnapshot, 0, len(m.outboxMsgs))
	for _, msg := range m.outboxMsgs {
		snapshots = append(snapshots, OutboxMsgSnapshot{
			ID:        msg.ID,
			Topic:     msg.Topic,
			Headers:   maps.Clone(msg.Headers),
			Payload:   msg.Payload,
			Processed: msg.ProcessedAt != nil,
			Error:     msg.Error,
		})
	}

	return snapshots
}
