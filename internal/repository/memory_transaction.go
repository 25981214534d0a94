package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/stock-ledger/internal/model"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/db"
)

type memoryTransactionRepository struct {
	h memoryHandle
}

// NewMemoryTransactionRepository returns a TransactionRepository over a MemoryDB.
func NewMemoryTransactionRepository(db *MemoryDB) TransactionRepository {
	return &memoryTransactionRepository{h: db}
}

func (r memoryTransactionRepository) WithDB(db db.DB) TransactionRepository {
	return &memoryTransactionRepository{h: memoryOf(db)}
}

func (r memoryTransactionRepository) AppendTransaction(ctx context.Context, tx model.Transaction) error {
	release, err := r.h.enter(ctx)
	if err != nil {
		return err
	}
	defer release()
	if tx.Quantity <= 0 || tx.Quantity > model.MaxStock {
		return fmt.Errorf("quantity out of range: %d", tx.Quantity)
	}

	m := r.h.memory()
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[tx.ProductID]; !ok {
		return fmt.Errorf("append transaction for product %s: %w", tx.ProductID, ErrNotFound)
	}

	m.transactions[tx.ProductID] = append(m.transactions[tx.ProductID], tx)

	r.h.onRollback(func() {
		m.transactions[tx.ProductID] = slices.DeleteFunc(m.transactions[tx.ProductID], func(t model.Transaction) bool {
			return t.ID == tx.ID
		})
	})

	return nil
}

func (r memoryTransactionRepository) ListTransactionsByProduct(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error) {
	release, err := r.h.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	m := r.h.memory()
	m.mu.RLock()
	defer m.mu.RUnlock()

	txs := slices.Clone(m.transactions[productID])
	if txs == nil {
		return []model.Transaction{}, nil
	}

	slices.Reverse(txs)
	slices.SortStableFunc(txs, func(a, b model.Transaction) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	return txs, nil
}
