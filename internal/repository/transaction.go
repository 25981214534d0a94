package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/stock-ledger/internal/model"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/db"
)

// TransactionRepository is the append-only stock movement log.
// There is deliberately no update or delete.
type TransactionRepository interface {
	WithDB(db db.DB) TransactionRepository
	AppendTransaction(ctx context.Context, tx model.Transaction) error
	// ListTransactionsByProduct returns the product's transactions, newest first.
	ListTransactionsByProduct(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error)
}

type transactionRepository struct {
	db db.DB
}

func NewTransactionRepository(db db.DB) TransactionRepository {
	return &transactionRepository{
		db: db,
	}
}

func (r transactionRepository) WithDB(db db.DB) TransactionRepository {
	return &transactionRepository{
		db: db,
	}
}

type transactionRow struct {
	ID        uuid.UUID `db:"id"`
	ProductID uuid.UUID `db:"product_id"`
	Type      string    `db:"type"`
	Quantity  int32     `db:"quantity"`
	Timestamp time.Time `db:"timestamp"`
}

func (r transactionRepository) AppendTransaction(ctx context.Context, tx model.Transaction) error {
	if tx.Quantity <= 0 || tx.Quantity > model.MaxStock {
		return fmt.Errorf("quantity out of range: %d", tx.Quantity)
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO transactions (id, product_id, type, quantity, timestamp)
		VALUES (@id, @product_id, @type, @quantity, @timestamp)
	`, pgx.NamedArgs{
		"id":         tx.ID,
		"product_id": tx.ProductID,
		"type":       string(tx.Type),
		"quantity":   int32(tx.Quantity),
		"timestamp":  tx.Timestamp,
	}); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}

	return nil
}

func (r transactionRepository) ListTransactionsByProduct(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, type, quantity, timestamp
		FROM transactions
		WHERE product_id = $1
		ORDER BY timestamp DESC, id DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by product: %w", err)
	}

	txRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[transactionRow])
	if err != nil {
		return nil, fmt.Errorf("collect transactions: %w", err)
	}

	txs := make([]model.Transaction, 0, len(txRows))
	for _, row := range txRows {
		txs = append(txs, model.Transaction{
			ID:        row.ID,
			ProductID: row.ProductID,
			Type:      model.TransactionType(row.Type),
			Quantity:  int(row.Quantity),
			Timestamp: row.Timestamp,
		})
	}

	return txs, nil
}
