package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/stock-ledger/internal/apperr"
	"github.com/tuanvumaihuynh/stock-ledger/internal/config"
	"github.com/tuanvumaihuynh/stock-ledger/internal/event"
	"github.com/tuanvumaihuynh/stock-ledger/internal/model"
	"github.com/tuanvumaihuynh/stock-ledger/internal/repository"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/db"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/keymutex"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/outbox"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/ptr"
)

var tracer = otel.Tracer("internal/service")

type CreateProductParams struct {
	Name         string
	Sku          string
	InitialStock int
}

type AdjustStockParams struct {
	ProductID uuid.UUID
	Type      model.TransactionType
	Quantity  int
}

type ProductSummary struct {
	Product        model.Product
	CurrentStock   int
	TotalIncreased int
	TotalDecreased int
}

type LedgerVerification struct {
	ProductID     uuid.UUID
	Stock         int
	ReplayedStock int
	Transactions  int
	Consistent    bool
}

// LedgerService is the only writer of product stock and transactions.
type LedgerService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	// AdjustStock moves stock and records the transaction atomically, returning the new stock.
	AdjustStock(ctx context.Context, params AdjustStockParams) (int, error)
	GetSummary(ctx context.Context, productID uuid.UUID) (ProductSummary, error)
	ListTransactions(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error)
	VerifyLedger(ctx context.Context, productID uuid.UUID) (LedgerVerification, error)
}

type ledgerService struct {
	cfg           config.Ledger
	db            db.DB
	productRepo   repository.ProductRepository
	txRepo        repository.TransactionRepository
	outboxMsgRepo repository.OutboxMsgRepository

	locks *keymutex.KeyMutex[uuid.UUID]
	now   func() time.Time
}

func NewLedgerService(
	cfg config.Ledger,
	db db.DB,
	productRepo repository.ProductRepository,
	txRepo repository.TransactionRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) LedgerService {
	return &ledgerService{
		cfg:           cfg,
		db:            db,
		productRepo:   productRepo,
		txRepo:        txRepo,
		outboxMsgRepo: outboxMsgRepo,
		locks:         keymutex.New[uuid.UUID](),
		now:           time.Now,
	}
}

func (s *ledgerService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return model.Product{}, apperr.InvalidArgumentErr.WithMsg("name is required")
	}
	if strings.TrimSpace(params.Sku) == "" {
		return model.Product{}, apperr.InvalidArgumentErr.WithMsg("sku is required")
	}
	if params.InitialStock < 0 {
		return model.Product{}, apperr.InvalidArgumentErr.WithMsg("initial stock cannot be negative")
	}
	if params.InitialStock > model.MaxStock {
		return model.Product{}, apperr.InvalidArgumentErr.WithMsg(fmt.Sprintf("initial stock cannot exceed %d", model.MaxStock))
	}

	ctx, span := tracer.Start(ctx, "LedgerService.CreateProduct",
		trace.WithAttributes(attribute.String("product.sku", params.Sku)))
	defer span.End()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	// the opening balance is stored as InitialStock, not as a transaction
	now := s.now()
	product := model.Product{
		ID:           id,
		Name:         name,
		Sku:          params.Sku,
		InitialStock: params.InitialStock,
		Stock:        params.InitialStock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	evBytes, err := json.Marshal(event.ProductCreatedEvent{
		ProductID:    product.ID.String(),
		Name:         product.Name,
		Sku:          product.Sku,
		InitialStock: product.InitialStock,
		CreatedAt:    product.CreatedAt,
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("marshal event: %w", err)
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.productRepo.
			WithDB(db).
			CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		if err := s.outboxMsgRepo.
			WithDB(db).
			CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
				Topic:        event.TopicProductCreated,
				Headers:      outbox.BuildHeaders(ctx),
				Payload:      evBytes,
				PartitionKey: ptr.New(product.ID.String()),
			}); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
		}

		return nil
	}); err != nil {
		return model.Product{}, translateErr(fmt.Errorf("db with tx: %w", err))
	}

	return product, nil
}

func (s *ledgerService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	products, err := s.productRepo.ListAllProducts(ctx)
	if err != nil {
		return nil, translateErr(fmt.Errorf("product repository list all products: %w", err))
	}

	return products, nil
}

func (s *ledgerService) AdjustStock(ctx context.Context, params AdjustStockParams) (int, error) {
	if params.Quantity <= 0 {
		return 0, apperr.InvalidArgumentErr.WithMsg("quantity must be greater than 0")
	}
	if params.Quantity > model.MaxStock {
		return 0, apperr.InvalidArgumentErr.WithMsg(fmt.Sprintf("quantity cannot exceed %d", model.MaxStock))
	}
	if err := params.Type.Validate(); err != nil {
		return 0, apperr.InvalidArgumentErr.WithMsg(err.Error())
	}

	ctx, span := tracer.Start(ctx, "LedgerService.AdjustStock", trace.WithAttributes(
		attribute.String("product.id", params.ProductID.String()),
		attribute.String("transaction.type", string(params.Type)),
		attribute.Int("transaction.quantity", params.Quantity),
	))
	defer span.End()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock, err := s.locks.Lock(ctx, params.ProductID)
	if err != nil {
		return 0, translateErr(fmt.Errorf("lock product %s: %w", params.ProductID, err))
	}
	defer unlock()

	var newStock int
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		product, err := s.productRepo.
			WithDB(db).
			GetProductByIDForUpdate(ctx, params.ProductID)
		if err != nil {
			return fmt.Errorf("product repository get product for update: %w", err)
		}

		newStock, err = model.ApplyStock(product.Stock, params.Type, params.Quantity)
		if err != nil {
			return err
		}

		now := s.now()
		if err := s.productRepo.
			WithDB(db).
			UpdateProductStock(ctx, repository.UpdateProductStockParams{
				ID:            product.ID,
				ExpectedStock: product.Stock,
				Stock:         newStock,
				UpdatedAt:     now,
			}); err != nil {
			return fmt.Errorf("product repository update product stock: %w", err)
		}

		txID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate uuid v7: %w", err)
		}

		tx := model.Transaction{
			ID:        txID,
			ProductID: product.ID,
			Type:      params.Type,
			Quantity:  params.Quantity,
			Timestamp: now,
		}
		if err := s.txRepo.
			WithDB(db).
			AppendTransaction(ctx, tx); err != nil {
			return fmt.Errorf("transaction repository append transaction: %w", err)
		}

		evBytes, err := json.Marshal(event.StockAdjustedEvent{
			TransactionID: tx.ID.String(),
			ProductID:     product.ID.String(),
			Sku:           product.Sku,
			Type:          string(tx.Type),
			Quantity:      tx.Quantity,
			Stock:         newStock,
			Timestamp:     tx.Timestamp,
		})
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		if err := s.outboxMsgRepo.
			WithDB(db).
			CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
				Topic:        event.TopicStockAdjusted,
				Headers:      outbox.BuildHeaders(ctx),
				Payload:      evBytes,
				PartitionKey: ptr.New(product.ID.String()),
			}); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
		}

		return nil
	}); err != nil {
		return 0, translateErr(fmt.Errorf("db with tx: %w", err))
	}

	span.SetAttributes(attribute.Int("product.stock", newStock))

	return newStock, nil
}

func (s *ledgerService) GetSummary(ctx context.Context, productID uuid.UUID) (ProductSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	product, txs, err := s.readLedger(ctx, productID)
	if err != nil {
		return ProductSummary{}, err
	}

	increased, decreased := model.Totals(txs)

	return ProductSummary{
		Product:        product,
		CurrentStock:   product.Stock,
		TotalIncreased: increased,
		TotalDecreased: decreased,
	}, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, txs, err := s.readLedger(ctx, productID)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func (s *ledgerService) VerifyLedger(ctx context.Context, productID uuid.UUID) (LedgerVerification, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	product, txs, err := s.readLedger(ctx, productID)
	if err != nil {
		return LedgerVerification{}, err
	}

	replayed := model.ReplayStock(product.InitialStock, txs)

	return LedgerVerification{
		ProductID:     product.ID,
		Stock:         product.Stock,
		ReplayedStock: replayed,
		Transactions:  len(txs),
		Consistent:    replayed == product.Stock,
	}, nil
}

// readLedger loads a product and its history under the product lock and the
// row lock, so the stock and the history belong to the same point in the
// serial order of adjustments and never include uncommitted work.
func (s *ledgerService) readLedger(ctx context.Context, productID uuid.UUID) (model.Product, []model.Transaction, error) {
	unlock, err := s.locks.Lock(ctx, productID)
	if err != nil {
		return model.Product{}, nil, translateErr(fmt.Errorf("lock product %s: %w", productID, err))
	}
	defer unlock()

	var (
		product model.Product
		txs     []model.Transaction
	)
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		product, err = s.productRepo.
			WithDB(db).
			GetProductByIDForUpdate(ctx, productID)
		if err != nil {
			return fmt.Errorf("product repository get product for update: %w", err)
		}

		txs, err = s.txRepo.
			WithDB(db).
			ListTransactionsByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("transaction repository list transactions: %w", err)
		}

		return nil
	}); err != nil {
		return model.Product{}, nil, translateErr(fmt.Errorf("db with tx: %w", err))
	}

	return product, txs, nil
}

func (s *ledgerService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.OperationTimeout)
}

// translateErr maps store and domain failures onto the caller-facing error kinds.
// Anything unrecognized is returned as is and surfaces as an internal error.
func translateErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.ProductNotFoundErr.WrapParent(err)
	case errors.Is(err, repository.ErrDuplicateSku):
		return apperr.DuplicateSkuErr.WrapParent(err)
	case errors.Is(err, model.ErrInsufficientStock):
		return apperr.InsufficientStockErr.WrapParent(err)
	case errors.Is(err, model.ErrStockOverflow):
		return apperr.InvalidArgumentErr.WithMsg(fmt.Sprintf("stock cannot exceed %d", model.MaxStock)).WrapParent(err)
	case errors.Is(err, model.ErrInvalidQuantity):
		return apperr.InvalidArgumentErr.WithMsg("quantity must be greater than 0").WrapParent(err)
	case errors.Is(err, repository.ErrStockConflict), db.IsTransient(err):
		return apperr.StorageUnavailableErr.WrapParent(err)
	default:
		return err
	}
}
