package event

import "time"

const (
	TopicProductCreated = "product.created"
	TopicStockAdjusted  = "stock.adjusted"
)

type ProductCreatedEvent struct {
	ProductID    string    `json:"product_id"`
	Name         string    `json:"name"`
	Sku          string    `json:"sku"`
	InitialStock int       `json:"initial_stock"`
	CreatedAt    time.Time `json:"created_at"`
}

// StockAdjustedEvent mirrors one appended ledger transaction and the stock it produced.
type StockAdjustedEvent struct {
	TransactionID string    `json:"transaction_id"`
	ProductID     string    `json:"product_id"`
	Sku           string    `json:"sku"`
	Type          string    `json:"type"`
	Quantity      int       `json:"quantity"`
	Stock         int       `json:"stock"`
	Timestamp     time.Time `json:"timestamp"`
}
