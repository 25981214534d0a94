package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeIncrease TransactionType = "INCREASE"
	TransactionTypeDecrease TransactionType = "DECREASE"
)

// Validate implements the enum contract used by the request validator.
func (t TransactionType) Validate() error {
	switch t {
	case TransactionTypeIncrease, TransactionTypeDecrease:
		return nil
	default:
		return fmt.Errorf("unknown transaction type %q", string(t))
	}
}

// Transaction is an immutable record of one stock movement.
// Quantity is always positive; the direction lives in Type.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Type      TransactionType `json:"type"`
	Quantity  int             `json:"quantity"`
	Timestamp time.Time       `json:"timestamp"`
}

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockOverflow     = errors.New("stock overflow")
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
)

// ApplyStock returns the stock after moving quantity in the given direction.
func ApplyStock(stock int, typ TransactionType, quantity int) (int, error) {
	if quantity <= 0 {
		return stock, ErrInvalidQuantity
	}

	switch typ {
	case TransactionTypeIncrease:
		if quantity > MaxStock-stock {
			return stock, ErrStockOverflow
		}
		return stock + quantity, nil
	case TransactionTypeDecrease:
		if stock < quantity {
			return stock, ErrInsufficientStock
		}
		return stock - quantity, nil
	default:
		return stock, typ.Validate()
	}
}

// Totals sums quantities per direction.
func Totals(txs []Transaction) (increased, decreased int) {
	for _, tx := range txs {
		switch tx.Type {
		case TransactionTypeIncrease:
			increased += tx.Quantity
		case TransactionTypeDecrease:
			decreased += tx.Quantity
		}
	}
	return increased, decreased
}

// ReplayStock recomputes stock from the opening balance and the full history.
func ReplayStock(initialStock int, txs []Transaction) int {
	increased, decreased := Totals(txs)
	return initialStock + increased - decreased
}
