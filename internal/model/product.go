package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxStock is the largest stock or quantity the ledger stores.
const MaxStock = math.MaxInt32

// Product is a stock-keeping item. InitialStock is the opening balance and is
// never changed; Stock moves only through recorded transactions.
type Product struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Sku          string    `json:"sku"`
	InitialStock int       `json:"initialStock"`
	Stock        int       `json:"stock"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
