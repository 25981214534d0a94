package validator_test

import (
	"errors"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/stock-ledger/pkg/ptr"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/validator"
)

type color string

func (c color) Validate() error {
	if c != "red" && c != "blue" {
		return errors.New("unknown color")
	}
	return nil
}

type payload struct {
	Name     string `json:"name" validate:"required,notblank"`
	Code     string `json:"code" validate:"required,max=8"`
	Quantity *int   `json:"quantity" validate:"required,gt=0"`
	Color    color  `json:"color" validate:"enum"`
}

func TestDefaultValidator(t *testing.T) {
	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	t.Run("Should accept a valid payload", func(t *testing.T) {
		err := v.Validate(payload{Name: "Laptop", Code: "LP101", Quantity: ptr.New(1), Color: "red"})
		assert.NoError(t, err)
	})

	t.Run("Should report json field names", func(t *testing.T) {
		err := v.Validate(payload{Name: "   ", Code: "LP101-EXTRA", Quantity: ptr.New(0), Color: "green"})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))

		var fieldErrs govalidator.ValidationErrors
		require.ErrorAs(t, err, &fieldErrs)

		got := map[string]string{}
		for _, fe := range fieldErrs {
			got[fe.Field()] = validator.ValidationErrorMessage(fe)
		}
		assert.Equal(t, map[string]string{
			"name":     "must not be blank",
			"code":     "must be at most 8",
			"quantity": "must be greater than 0",
			"color":    "invalid enum value: green",
		}, got)
	})

	t.Run("Should require pointer fields", func(t *testing.T) {
		err := v.Validate(payload{Name: "Laptop", Code: "LP101", Color: "blue"})

		var fieldErrs govalidator.ValidationErrors
		require.ErrorAs(t, err, &fieldErrs)
		require.Len(t, fieldErrs, 1)
		assert.Equal(t, "quantity", fieldErrs[0].Field())
		assert.Equal(t, "field is required", validator.ValidationErrorMessage(fieldErrs[0]))
	})
}
