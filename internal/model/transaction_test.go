package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/stock-ledger/internal/model"
)

func TestApplyStock(t *testing.T) {
	tests := []struct {
		name     string
		stock    int
		typ      model.TransactionType
		quantity int
		want     int
		wantErr  error
	}{
		{name: "increase", stock: 20, typ: model.TransactionTypeIncrease, quantity: 5, want: 25},
		{name: "decrease", stock: 25, typ: model.TransactionTypeDecrease, quantity: 10, want: 15},
		{name: "decrease to zero", stock: 3, typ: model.TransactionTypeDecrease, quantity: 3, want: 0},
		{name: "insufficient stock", stock: 25, typ: model.TransactionTypeDecrease, quantity: 30, want: 25, wantErr: model.ErrInsufficientStock},
		{name: "zero quantity", stock: 25, typ: model.TransactionTypeDecrease, quantity: 0, want: 25, wantErr: model.ErrInvalidQuantity},
		{name: "negative quantity", stock: 25, typ: model.TransactionTypeIncrease, quantity: -1, want: 25, wantErr: model.ErrInvalidQuantity},
		{name: "overflow", stock: model.MaxStock, typ: model.TransactionTypeIncrease, quantity: 1, want: model.MaxStock, wantErr: model.ErrStockOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.ApplyStock(tt.stock, tt.typ, tt.quantity)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		_, err := model.ApplyStock(1, "RESERVE", 1)
		assert.Error(t, err)
	})
}

func TestReplayStock(t *testing.T) {
	txs := []model.Transaction{
		{Type: model.TransactionTypeDecrease, Quantity: 10},
		{Type: model.TransactionTypeIncrease, Quantity: 5},
		{Type: model.TransactionTypeIncrease, Quantity: 2},
	}

	increased, decreased := model.Totals(txs)
	assert.Equal(t, 7, increased)
	assert.Equal(t, 10, decreased)
	assert.Equal(t, 17, model.ReplayStock(20, txs))
	assert.Equal(t, 20, model.ReplayStock(20, nil))
}

func TestTransactionTypeValidate(t *testing.T) {
	assert.NoError(t, model.TransactionTypeIncrease.Validate())
	assert.NoError(t, model.TransactionTypeDecrease.Validate())
	assert.Error(t, model.TransactionType("increase").Validate())
	assert.Error(t, model.TransactionType("").Validate())
}
