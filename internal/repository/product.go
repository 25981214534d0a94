package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/stock-ledger/internal/model"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/db"
)

const productSkuConstraint = "products_sku_key"

type UpdateProductStockParams struct {
	ID uuid.UUID
	// ExpectedStock guards the write: it only applies if the stored stock still matches.
	ExpectedStock int
	Stock         int
	UpdatedAt     time.Time
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	CreateProduct(ctx context.Context, product model.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (model.Product, error)
	// GetProductByIDForUpdate locks the product row until the surrounding transaction ends.
	GetProductByIDForUpdate(ctx context.Context, id uuid.UUID) (model.Product, error)
	UpdateProductStock(ctx context.Context, params UpdateProductStockParams) error
	ListAllProducts(ctx context.Context) ([]model.Product, error)
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{
		db: db,
	}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{
		db: db,
	}
}

type productRow struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Sku          string    `db:"sku"`
	InitialStock int32     `db:"initial_stock"`
	Stock        int32     `db:"stock"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (row productRow) toModel() model.Product {
	return model.Product{
		ID:           row.ID,
		Name:         row.Name,
		Sku:          row.Sku,
		InitialStock: int(row.InitialStock),
		Stock:        int(row.Stock),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

const productColumns = `id, name, sku, initial_stock, stock, created_at, updated_at`

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	if err := checkStockRange(product.InitialStock); err != nil {
		return err
	}
	if err := checkStockRange(product.Stock); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (@id, @name, @sku, @initial_stock, @stock, @created_at, @updated_at)
	`, pgx.NamedArgs{
		"id":            product.ID,
		"name":          product.Name,
		"sku":           product.Sku,
		"initial_stock": int32(product.InitialStock),
		"stock":         int32(product.Stock),
		"created_at":    product.CreatedAt,
		"updated_at":    product.UpdatedAt,
	})
	if err != nil {
		if db.IsUniqueViolation(err, productSkuConstraint) {
			return fmt.Errorf("create product %q: %w", product.Sku, ErrDuplicateSku)
		}
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r productRepository) GetProductByIDForUpdate(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r productRepository) getProduct(ctx context.Context, query string, id uuid.UUID) (model.Product, error) {
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("query product: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[productRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return model.Product{}, fmt.Errorf("collect product: %w", err)
	}

	return row.toModel(), nil
}

func (r productRepository) UpdateProductStock(ctx context.Context, params UpdateProductStockParams) error {
	if err := checkStockRange(params.Stock); err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET stock = @stock, updated_at = @updated_at
		WHERE id = @id AND stock = @expected_stock
	`, pgx.NamedArgs{
		"id":             params.ID,
		"stock":          int32(params.Stock),
		"expected_stock": int32(params.ExpectedStock),
		"updated_at":     params.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update product %s stock: %w", params.ID, ErrStockConflict)
	}

	return nil
}

func (r productRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}

	productRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[productRow])
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	products := make([]model.Product, 0, len(productRows))
	for _, row := range productRows {
		products = append(products, row.toModel())
	}

	return products, nil
}

func checkStockRange(stock int) error {
	if stock < 0 || stock > model.MaxStock {
		return fmt.Errorf("stock out of range: %d", stock)
	}
	return nil
}
