package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tuanvumaihuynh/stock-ledger/internal/model"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/db"
)

// ErrSQLUnsupported is returned by the raw SQL methods of MemoryDB.
var ErrSQLUnsupported = errors.New("memory db: raw sql is not supported")

var (
	_ db.DB = (*MemoryDB)(nil)
	_ db.DB = (*memoryTx)(nil)
)

// MemoryDB is an in-process implementation of db.DB backing the memory repositories.
//
// Transactions are serializable: a transaction holds the store exclusively
// until it commits or rolls back, and statements outside a transaction wait
// for it, so nobody observes uncommitted writes. A transaction keeps an undo
// log and reverts its writes when the transaction function fails.
type MemoryDB struct {
	// serial is held by the running transaction or statement
	serial chan struct{}

	mu           sync.RWMutex
	products     map[uuid.UUID]model.Product
	skus         map[string]uuid.UUID
	productOrder []uuid.UUID
	transactions map[uuid.UUID][]model.Transaction
	outboxMsgs   []*memoryOutboxMsg
}

// NewMemoryDB creates an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		serial:       make(chan struct{}, 1),
		products:     make(map[uuid.UUID]model.Product),
		skus:         make(map[string]uuid.UUID),
		transactions: make(map[uuid.UUID][]model.Transaction),
	}
}

// memoryHandle is either the MemoryDB itself or a transaction on it.
type memoryHandle interface {
	memory() *MemoryDB
	// enter waits until the handle may run a statement; release ends it.
	enter(ctx context.Context) (release func(), err error)
	// onRollback registers an undo step; it runs with the write lock held.
	onRollback(undo func())
}

func (m *MemoryDB) memory() *MemoryDB  { return m }
func (m *MemoryDB) onRollback(func()) {}

func (m *MemoryDB) enter(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case m.serial <- struct{}{}:
		return func() { <-m.serial }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *MemoryDB) WithTx(ctx context.Context, txFunc func(db.DB) error) error {
	release, err := m.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx := &memoryTx{MemoryDB: m}
	if err := txFunc(tx); err != nil {
		tx.rollback()
		return err
	}

	// a transaction that outlived its context does not commit, as with Postgres
	if err := ctx.Err(); err != nil {
		tx.rollback()
		return err
	}

	return nil
}

func (m *MemoryDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, ErrSQLUnsupported
}

func (m *MemoryDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, ErrSQLUnsupported
}

func (m *MemoryDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{}
}

func (m *MemoryDB) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, ErrSQLUnsupported
}

func (m *MemoryDB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	return errBatchResults{}
}

// IsHealthy implements db.HealthChecker.
func (m *MemoryDB) IsHealthy(context.Context) (bool, error) {
	return true, nil
}

type memoryTx struct {
	*MemoryDB

	mu   sync.Mutex
	undo []func()
}

func (t *memoryTx) memory() *MemoryDB { return t.MemoryDB }

// enter only checks ctx; the transaction already holds the store.
func (t *memoryTx) enter(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return func() {}, nil
}

func (t *memoryTx) onRollback(undo func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undo = append(t.undo, undo)
}

func (t *memoryTx) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	return txFunc(t)
}

func (t *memoryTx) rollback() {
	t.mu.Lock()
	undo := t.undo
	t.undo = nil
	t.mu.Unlock()

	t.MemoryDB.mu.Lock()
	defer t.MemoryDB.mu.Unlock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}

// memoryOf resolves the handle behind a db.DB given to a memory repository.
func memoryOf(d db.DB) memoryHandle {
	h, ok := d.(memoryHandle)
	if !ok {
		panic("memory repository used with a non-memory db")
	}
	return h
}

type errRow struct{}

func (errRow) Scan(...any) error { return ErrSQLUnsupported }

type errBatchResults struct{}

func (errBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, ErrSQLUnsupported }
func (errBatchResults) Query() (pgx.Rows, error)         { return nil, ErrSQLUnsupported }
func (errBatchResults) QueryRow() pgx.Row                { return errRow{} }
func (errBatchResults) Close() error                     { return nil }
