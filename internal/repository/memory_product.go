package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/stock-ledger/internal/model"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/db"
)

type memoryProductRepository struct {
	h memoryHandle
}

// NewMemoryProductRepository returns a ProductRepository over a MemoryDB.
func NewMemoryProductRepository(db *MemoryDB) ProductRepository {
	return &memoryProductRepository{h: db}
}

func (r memoryProductRepository) WithDB(db db.DB) ProductRepository {
	return &memoryProductRepository{h: memoryOf(db)}
}

func (r memoryProductRepository) CreateProduct(ctx context.Context, product model.Product) error {
	release, err := r.h.enter(ctx)
	if err != nil {
		return err
	}
	defer release()
	if err := checkStockRange(product.InitialStock); err != nil {
		return err
	}
	if err := checkStockRange(product.Stock); err != nil {
		return err
	}

	m := r.h.memory()
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.skus[product.Sku]; exists {
		return fmt.Errorf("create product %q: %w", product.Sku, ErrDuplicateSku)
	}
	if _, exists := m.products[product.ID]; exists {
		return fmt.Errorf("create product: id %s already exists", product.ID)
	}

	m.products[product.ID] = product
	m.skus[product.Sku] = product.ID
	m.productOrder = append(m.productOrder, product.ID)

	r.h.onRollback(func() {
		delete(m.products, product.ID)
		delete(m.skus, product.Sku)
		m.productOrder = slices.DeleteFunc(m.productOrder, func(id uuid.UUID) bool {
			return id == product.ID
		})
	})

	return nil
}

func (r memoryProductRepository) GetProductByID(ctx context.Context, id uuid.UUID) (model.Product, error) {
	release, err := r.h.enter(ctx)
	if err != nil {
		return model.Product{}, err
	}
	defer release()

	m := r.h.memory()
	m.mu.RLock()
	defer m.mu.RUnlock()

	product, ok := m.products[id]
	if !ok {
		return model.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	return product, nil
}

// GetProductByIDForUpdate needs no row lock: a transaction holds the whole store.
func (r memoryProductRepository) GetProductByIDForUpdate(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.GetProductByID(ctx, id)
}

func (r memoryProductRepository) UpdateProductStock(ctx context.Context, params UpdateProductStockParams) error {
	release, err := r.h.enter(ctx)
	if err != nil {
		return err
	}
	defer release()
	if err := checkStockRange(params.Stock); err != nil {
		return err
	}

	m := r.h.memory()
	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[params.ID]
	if !ok || product.Stock != params.ExpectedStock {
		return fmt.Errorf("update product %s stock: %w", params.ID, ErrStockConflict)
	}

	prev := product
	product.Stock = params.Stock
	product.UpdatedAt = params.UpdatedAt
	m.products[params.ID] = product

	r.h.onRollback(func() {
		m.products[params.ID] = prev
	})

	return nil
}

func (r memoryProductRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	release, err := r.h.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	m := r.h.memory()
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]model.Product, 0, len(m.productOrder))
	for _, id := range m.productOrder {
		products = append(products, m.products[id])
	}

	// newest first; insertion order breaks ties on equal timestamps
	slices.Reverse(products)
	slices.SortStableFunc(products, func(a, b model.Product) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return products, nil
}
