package repository

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateSku  = errors.New("duplicate sku")
	ErrStockConflict = errors.New("stock changed concurrently")
)
