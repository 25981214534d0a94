package apierr

import (
	"errors"
	"fmt"
	"net/http"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/tuanvumaihuynh/stock-ledger/internal/apperr"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/validator"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/zerror"
)

const (
	InternalServerErrorCode = "INTERNAL_SERVER_ERROR"
	RouteNotFoundCode       = "ROUTE_NOT_FOUND"
	MethodNotAllowedCode    = "METHOD_NOT_ALLOWED"
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the error response for the API.
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details *[]FieldError `json:"details,omitempty"`

	// StatusCode is the status code for the error response.
	StatusCode int `json:"-"`
}

func New(err error) ErrorResponse {
	return errorToErrorResponse(err)
}

var InternalServerErr = ErrorResponse{
	Code:       InternalServerErrorCode,
	Message:    "an unknown error occurred",
	StatusCode: http.StatusInternalServerError,
}

var RouteNotFoundErr = ErrorResponse{
	Code:       RouteNotFoundCode,
	Message:    "route not found",
	StatusCode: http.StatusNotFound,
}

var MethodNotAllowedErr = ErrorResponse{
	Code:       MethodNotAllowedCode,
	Message:    "method not allowed",
	StatusCode: http.StatusMethodNotAllowed,
}

// InvalidParamFormatError is returned when a path or query parameter cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// InvalidBodyError is returned when a request body is not valid JSON for its type.
type InvalidBodyError struct {
	Err error
}

func (e *InvalidBodyError) Error() string {
	return fmt.Sprintf("can't decode JSON body: %s", e.Err.Error())
}

func (e *InvalidBodyError) Unwrap() error {
	return e.Err
}

func errorToErrorResponse(err error) ErrorResponse {
	var validationErrs govalidator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]FieldError, len(validationErrs))
		for i, fe := range validationErrs {
			details[i] = FieldError{
				Field:   fe.Field(),
				Message: validator.ValidationErrorMessage(fe),
			}
		}

		return ErrorResponse{
			Code:       apperr.ValidationErrorCode,
			Message:    "validation error",
			Details:    &details,
			StatusCode: http.StatusBadRequest,
		}
	}

	if isRequestFormatErr(err) {
		return ErrorResponse{
			Code:       apperr.ValidationErrorCode,
			Message:    requestFormatMsg(err),
			StatusCode: http.StatusBadRequest,
		}
	}

	var zErr zerror.ZError
	if errors.As(err, &zErr) {
		return ErrorResponse{
			Code:       zErr.Code(),
			Message:    zErr.Msg(),
			StatusCode: ZErrorStatusToHTTPStatus(zErr.Status()),
		}
	}

	return InternalServerErr
}

func ZErrorStatusToHTTPStatus(status zerror.Status) int {
	switch status {
	case zerror.StatusUnauthorized:
		return http.StatusUnauthorized
	case zerror.StatusForbidden:
		return http.StatusForbidden
	case zerror.StatusNotFound:
		return http.StatusNotFound
	case zerror.StatusUnprocessableEntity:
		return http.StatusUnprocessableEntity
	case zerror.StatusConflict:
		return http.StatusConflict
	case zerror.StatusTooManyRequests:
		return http.StatusTooManyRequests
	case zerror.StatusBadRequest:
		return http.StatusBadRequest
	case zerror.StatusValidationFailed:
		return http.StatusBadRequest
	case zerror.StatusUnknown, zerror.StatusInternalServerError:
		return http.StatusInternalServerError
	case zerror.StatusTimeout:
		return http.StatusGatewayTimeout
	case zerror.StatusNotImplemented:
		return http.StatusNotImplemented
	case zerror.StatusBadGateway:
		return http.StatusBadGateway
	case zerror.StatusServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func isRequestFormatErr(err error) bool {
	var (
		e1 *InvalidParamFormatError
		e2 *InvalidBodyError
	)

	return errors.As(err, &e1) || errors.As(err, &e2)
}

func requestFormatMsg(err error) string {
	var paramErr *InvalidParamFormatError
	if errors.As(err, &paramErr) {
		return paramErr.Error()
	}

	var bodyErr *InvalidBodyError
	if errors.As(err, &bodyErr) {
		return bodyErr.Error()
	}

	return err.Error()
}
