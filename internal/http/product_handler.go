package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tuanvumaihuynh/stock-ledger/internal/http/apierr"
	"github.com/tuanvumaihuynh/stock-ledger/internal/model"
	"github.com/tuanvumaihuynh/stock-ledger/internal/service"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/validator"
)

const maxBodyBytes = 1 << 20 // 1 MB

type productHandler struct {
	ledgerSvc service.LedgerService
	validator validator.Validator
}

func newProductHandler(ledgerSvc service.LedgerService, v validator.Validator) *productHandler {
	return &productHandler{
		ledgerSvc: ledgerSvc,
		validator: v,
	}
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request) error {
	products, err := h.ledgerSvc.ListAllProducts(r.Context())
	if err != nil {
		return fmt.Errorf("ledger service list all products: %w", err)
	}

	items := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		items = append(items, toProductResponse(product))
	}

	return writeJSON(w, http.StatusOK, items)
}

func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request) error {
	var req CreateProductRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		return err
	}

	product, err := h.ledgerSvc.CreateProduct(r.Context(), service.CreateProductParams{
		Name:         req.Name,
		Sku:          req.Sku,
		InitialStock: *req.InitialStock,
	})
	if err != nil {
		return fmt.Errorf("ledger service create product: %w", err)
	}

	return writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *productHandler) IncreaseStock(w http.ResponseWriter, r *http.Request) error {
	return h.adjustStock(w, r, model.TransactionTypeIncrease)
}

func (h *productHandler) DecreaseStock(w http.ResponseWriter, r *http.Request) error {
	return h.adjustStock(w, r, model.TransactionTypeDecrease)
}

func (h *productHandler) adjustStock(w http.ResponseWriter, r *http.Request, txType model.TransactionType) error {
	productID, err := bindProductID(r)
	if err != nil {
		return err
	}

	var req AdjustStockRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		return err
	}

	stock, err := h.ledgerSvc.AdjustStock(r.Context(), service.AdjustStockParams{
		ProductID: productID,
		Type:      txType,
		Quantity:  *req.Quantity,
	})
	if err != nil {
		return fmt.Errorf("ledger service adjust stock: %w", err)
	}

	return writeJSON(w, http.StatusOK, StockResponse{ProductID: productID, Stock: stock})
}

func (h *productHandler) GetProductSummary(w http.ResponseWriter, r *http.Request) error {
	productID, err := bindProductID(r)
	if err != nil {
		return err
	}

	summary, err := h.ledgerSvc.GetSummary(r.Context(), productID)
	if err != nil {
		return fmt.Errorf("ledger service get summary: %w", err)
	}

	return writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (h *productHandler) ListTransactions(w http.ResponseWriter, r *http.Request) error {
	productID, err := bindProductID(r)
	if err != nil {
		return err
	}

	txs, err := h.ledgerSvc.ListTransactions(r.Context(), productID)
	if err != nil {
		return fmt.Errorf("ledger service list transactions: %w", err)
	}

	items := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		items = append(items, toTransactionResponse(tx))
	}

	return writeJSON(w, http.StatusOK, items)
}

func (h *productHandler) VerifyLedger(w http.ResponseWriter, r *http.Request) error {
	productID, err := bindProductID(r)
	if err != nil {
		return err
	}

	res, err := h.ledgerSvc.VerifyLedger(r.Context(), productID)
	if err != nil {
		return fmt.Errorf("ledger service verify ledger: %w", err)
	}

	return writeJSON(w, http.StatusOK, toLedgerVerificationResponse(res))
}

func (h *productHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		}
		return &apierr.InvalidBodyError{Err: err}
	}

	if err := h.validator.Validate(dst); err != nil {
		return err
	}

	return nil
}

func bindProductID(r *http.Request) (uuid.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return uuid.Nil, &apierr.InvalidParamFormatError{ParamName: "id", Err: err}
	}

	return id, nil
}

// responseWrittenError reports a failure after the status line was sent.
type responseWrittenError struct {
	err error
}

func (e *responseWrittenError) Error() string {
	return e.err.Error()
}

func (e *responseWrittenError) Unwrap() error {
	return e.err
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return &responseWrittenError{err: fmt.Errorf("encode response: %w", err)}
	}

	return nil
}
