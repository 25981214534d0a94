package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/stock-ledger/internal/model"
	"github.com/tuanvumaihuynh/stock-ledger/internal/service"
)

type CreateProductRequest struct {
	Name         string `json:"name" validate:"required,notblank"`
	Sku          string `json:"sku" validate:"required,notblank"`
	InitialStock *int   `json:"initialStock" validate:"required,gte=0,lte=2147483647"`
}

type AdjustStockRequest struct {
	Quantity *int `json:"quantity" validate:"required,gt=0,lte=2147483647"`
}

type ProductResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Sku          string    `json:"sku"`
	InitialStock int       `json:"initialStock"`
	Stock        int       `json:"stock"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ProductSummaryResponse struct {
	Product        ProductResponse `json:"product"`
	CurrentStock   int             `json:"currentStock"`
	TotalIncreased int             `json:"totalIncreased"`
	TotalDecreased int             `json:"totalDecreased"`
}

type StockResponse struct {
	ProductID uuid.UUID `json:"productId"`
	Stock     int       `json:"stock"`
}

type TransactionResponse struct {
	ID        uuid.UUID             `json:"id"`
	ProductID uuid.UUID             `json:"productId"`
	Type      model.TransactionType `json:"type"`
	Quantity  int                   `json:"quantity"`
	Timestamp time.Time             `json:"timestamp"`
}

type LedgerVerificationResponse struct {
	ProductID     uuid.UUID `json:"productId"`
	Stock         int       `json:"stock"`
	ReplayedStock int       `json:"replayedStock"`
	Transactions  int       `json:"transactions"`
	Consistent    bool      `json:"consistent"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Sku:          p.Sku,
		InitialStock: p.InitialStock,
		Stock:        p.Stock,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toTransactionResponse(tx model.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        tx.ID,
		ProductID: tx.ProductID,
		Type:      tx.Type,
		Quantity:  tx.Quantity,
		Timestamp: tx.Timestamp,
	}
}

func toSummaryResponse(s service.ProductSummary) ProductSummaryResponse {
	return ProductSummaryResponse{
		Product:        toProductResponse(s.Product),
		CurrentStock:   s.CurrentStock,
		TotalIncreased: s.TotalIncreased,
		TotalDecreased: s.TotalDecreased,
	}
}

func toLedgerVerificationResponse(v service.LedgerVerification) LedgerVerificationResponse {
	return LedgerVerificationResponse{
		ProductID:     v.ProductID,
		Stock:         v.Stock,
		ReplayedStock: v.ReplayedStock,
		Transactions:  v.Transactions,
		Consistent:    v.Consistent,
	}
}
