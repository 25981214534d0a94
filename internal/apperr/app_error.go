package apperr

import "github.com/tuanvumaihuynh/stock-ledger/pkg/zerror"

const (
	ValidationErrorCode         = "VALIDATION_FAILED"
	InvalidArgumentErrorCode    = "INVALID_ARGUMENT"
	ProductNotFoundErrorCode    = "PRODUCT_NOT_FOUND"
	DuplicateSkuErrorCode       = "DUPLICATE_SKU"
	InsufficientStockErrorCode  = "INSUFFICIENT_STOCK"
	StorageUnavailableErrorCode = "STORAGE_UNAVAILABLE"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	InvalidArgumentErr    = zerror.NewBadRequest(InvalidArgumentErrorCode, "invalid argument")
	ProductNotFoundErr    = zerror.NewNotFound(ProductNotFoundErrorCode, "product not found")
	DuplicateSkuErr       = zerror.NewConflict(DuplicateSkuErrorCode, "sku already exists")
	InsufficientStockErr  = zerror.NewBadRequest(InsufficientStockErrorCode, "insufficient stock")
	StorageUnavailableErr = zerror.NewServiceUnavailable(StorageUnavailableErrorCode, "storage temporarily unavailable")
)
