package apierr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/stock-ledger/internal/apperr"
	"github.com/tuanvumaihuynh/stock-ledger/internal/http/apierr"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/validator"
)

func TestNew(t *testing.T) {
	t.Run("Should map ledger errors to their status", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{apperr.InvalidArgumentErr, http.StatusBadRequest, apperr.InvalidArgumentErrorCode},
			{apperr.ProductNotFoundErr, http.StatusNotFound, apperr.ProductNotFoundErrorCode},
			{apperr.DuplicateSkuErr, http.StatusConflict, apperr.DuplicateSkuErrorCode},
			{apperr.InsufficientStockErr, http.StatusBadRequest, apperr.InsufficientStockErrorCode},
			{apperr.StorageUnavailableErr, http.StatusServiceUnavailable, apperr.StorageUnavailableErrorCode},
		}

		for _, c := range cases {
			res := apierr.New(fmt.Errorf("handler: %w", c.err))
			assert.Equal(t, c.status, res.StatusCode, c.code)
			assert.Equal(t, c.code, res.Code)
			assert.Nil(t, res.Details)
		}
	})

	t.Run("Should hide unknown errors", func(t *testing.T) {
		res := apierr.New(errors.New("pq: connection reset"))
		assert.Equal(t, apierr.InternalServerErr, res)
	})

	t.Run("Should list field errors", func(t *testing.T) {
		v, err := validator.NewDefaultValidator()
		require.NoError(t, err)

		type body struct {
			Quantity *int `json:"quantity" validate:"required,gt=0"`
		}
		zero := 0
		res := apierr.New(v.Validate(body{Quantity: &zero}))

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Equal(t, apperr.ValidationErrorCode, res.Code)
		require.NotNil(t, res.Details)
		require.Len(t, *res.Details, 1)
		assert.Equal(t, "quantity", (*res.Details)[0].Field)
		assert.Equal(t, "must be greater than 0", (*res.Details)[0].Message)
	})

	t.Run("Should report malformed parameters as validation errors", func(t *testing.T) {
		res := apierr.New(&apierr.InvalidParamFormatError{ParamName: "id", Err: errors.New("bad uuid")})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Equal(t, apperr.ValidationErrorCode, res.Code)
		assert.Contains(t, res.Message, "parameter id")

		res = apierr.New(&apierr.InvalidBodyError{Err: errors.New("unexpected EOF")})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Contains(t, res.Message, "unexpected EOF")
	})
}
