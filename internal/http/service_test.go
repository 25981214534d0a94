package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/stock-ledger/internal/apperr"
	"github.com/tuanvumaihuynh/stock-ledger/internal/config"
	httpsvc "github.com/tuanvumaihuynh/stock-ledger/internal/http"
	"github.com/tuanvumaihuynh/stock-ledger/internal/http/apierr"
	"github.com/tuanvumaihuynh/stock-ledger/internal/repository"
	"github.com/tuanvumaihuynh/stock-ledger/internal/service"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/db"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/correlationid"
)

type unhealthyDB struct{}

func (unhealthyDB) IsHealthy(context.Context) (bool, error) {
	return false, errors.New("connection refused")
}

func newTestServer(t *testing.T, checker db.HealthChecker) *httptest.Server {
	t.Helper()

	mem := repository.NewMemoryDB()
	if checker == nil {
		checker = mem
	}

	ledgerSvc := service.NewLedgerService(
		config.Ledger{OperationTimeout: time.Second},
		mem,
		repository.NewMemoryProductRepository(mem),
		repository.NewMemoryTransactionRepository(mem),
		repository.NewMemoryOutboxMsgRepository(mem),
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := httpsvc.New(config.HTTP{Swagger: true, CorsAllowAll: true}, logger, ledgerSvc, checker)
	require.NoError(t, err)

	handler, err := svc.Handler()
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv
}

func doJSON(t *testing.T, method, url, body string, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}

	return resp
}

func createProduct(t *testing.T, baseURL, name, sku string, stock int) httpsvc.ProductResponse {
	t.Helper()

	body, err := json.Marshal(map[string]any{"name": name, "sku": sku, "initialStock": stock})
	require.NoError(t, err)

	var product httpsvc.ProductResponse
	resp := doJSON(t, http.MethodPost, baseURL+"/products", string(body), &product)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return product
}

func TestProductRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	laptop := createProduct(t, srv.URL, "Laptop", "LP101", 20)
	assert.Equal(t, 20, laptop.Stock)
	assert.Equal(t, 20, laptop.InitialStock)

	productURL := srv.URL + "/products/" + laptop.ID.String()

	t.Run("Should adjust stock in both directions", func(t *testing.T) {
		var res httpsvc.StockResponse
		resp := doJSON(t, http.MethodPost, productURL+"/increase", `{"quantity":5}`, &res)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 25, res.Stock)
		assert.Equal(t, laptop.ID, res.ProductID)

		resp = doJSON(t, http.MethodPost, productURL+"/decrease", `{"quantity":8}`, &res)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 17, res.Stock)
	})

	t.Run("Should reject a decrease beyond stock", func(t *testing.T) {
		var res apierr.ErrorResponse
		resp := doJSON(t, http.MethodPost, productURL+"/decrease", `{"quantity":100}`, &res)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, apperr.InsufficientStockErrorCode, res.Code)
	})

	t.Run("Should summarize the product", func(t *testing.T) {
		var res httpsvc.ProductSummaryResponse
		resp := doJSON(t, http.MethodGet, productURL, "", &res)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 17, res.CurrentStock)
		assert.Equal(t, 5, res.TotalIncreased)
		assert.Equal(t, 8, res.TotalDecreased)
		assert.Equal(t, "LP101", res.Product.Sku)
	})

	t.Run("Should list transactions newest first", func(t *testing.T) {
		var res []httpsvc.TransactionResponse
		resp := doJSON(t, http.MethodGet, productURL+"/transactions", "", &res)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, res, 2)
		assert.EqualValues(t, "DECREASE", res[0].Type)
		assert.Equal(t, 8, res[0].Quantity)
		assert.EqualValues(t, "INCREASE", res[1].Type)
	})

	t.Run("Should verify the ledger", func(t *testing.T) {
		var res httpsvc.LedgerVerificationResponse
		resp := doJSON(t, http.MethodGet, productURL+"/ledger", "", &res)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, res.Consistent)
		assert.Equal(t, 17, res.ReplayedStock)
		assert.Equal(t, 2, res.Transactions)
	})

	t.Run("Should list products newest first", func(t *testing.T) {
		mouse := createProduct(t, srv.URL, "Wireless Mouse", "WM202", 50)

		var res []httpsvc.ProductResponse
		resp := doJSON(t, http.MethodGet, srv.URL+"/products", "", &res)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, res, 2)
		assert.Equal(t, mouse.ID, res[0].ID)
		assert.Equal(t, laptop.ID, res[1].ID)
	})
}

func TestProductRoutesErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	laptop := createProduct(t, srv.URL, "Laptop", "LP101", 20)

	t.Run("Should reject duplicate sku with conflict", func(t *testing.T) {
		var res apierr.ErrorResponse
		resp := doJSON(t, http.MethodPost, srv.URL+"/products", `{"name":"Other","sku":"LP101","initialStock":1}`, &res)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, apperr.DuplicateSkuErrorCode, res.Code)
	})

	t.Run("Should report invalid fields", func(t *testing.T) {
		var res apierr.ErrorResponse
		resp := doJSON(t, http.MethodPost, srv.URL+"/products", `{"name":" ","sku":"X","initialStock":-1}`, &res)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, apperr.ValidationErrorCode, res.Code)
		require.NotNil(t, res.Details)

		fields := map[string]bool{}
		for _, d := range *res.Details {
			fields[d.Field] = true
		}
		assert.True(t, fields["name"])
		assert.True(t, fields["initialStock"])
	})

	t.Run("Should require a quantity greater than zero", func(t *testing.T) {
		for _, body := range []string{`{"quantity":0}`, `{"quantity":-3}`, `{}`} {
			var res apierr.ErrorResponse
			resp := doJSON(t, http.MethodPost, srv.URL+"/products/"+laptop.ID.String()+"/increase", body, &res)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
			assert.Equal(t, apperr.ValidationErrorCode, res.Code, body)
		}
	})

	t.Run("Should reject malformed bodies", func(t *testing.T) {
		var res apierr.ErrorResponse
		resp := doJSON(t, http.MethodPost, srv.URL+"/products/"+laptop.ID.String()+"/increase", `{"quantity":`, &res)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, apperr.ValidationErrorCode, res.Code)

		resp = doJSON(t, http.MethodPost, srv.URL+"/products/"+laptop.ID.String()+"/increase", `{"quantity":"five"}`, &res)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Should reject malformed product ids", func(t *testing.T) {
		var res apierr.ErrorResponse
		resp := doJSON(t, http.MethodGet, srv.URL+"/products/not-a-uuid", "", &res)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, apperr.ValidationErrorCode, res.Code)
	})

	t.Run("Should report unknown products", func(t *testing.T) {
		unknown := srv.URL + "/products/" + uuid.NewString()
		for _, c := range []struct{ method, path, body string }{
			{http.MethodGet, "", ""},
			{http.MethodGet, "/transactions", ""},
			{http.MethodGet, "/ledger", ""},
			{http.MethodPost, "/increase", `{"quantity":1}`},
			{http.MethodPost, "/decrease", `{"quantity":1}`},
		} {
			var res apierr.ErrorResponse
			resp := doJSON(t, c.method, unknown+c.path, c.body, &res)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, c.path)
			assert.Equal(t, apperr.ProductNotFoundErrorCode, res.Code, c.path)
		}
	})

	t.Run("Should answer unknown routes and methods with json", func(t *testing.T) {
		var res apierr.ErrorResponse
		resp := doJSON(t, http.MethodGet, srv.URL+"/nope", "", &res)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, apierr.RouteNotFoundCode, res.Code)

		resp = doJSON(t, http.MethodDelete, srv.URL+"/products", "", &res)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, apierr.MethodNotAllowedCode, res.Code)
	})
}

func TestSystemRoutes(t *testing.T) {
	t.Run("Should report healthy store", func(t *testing.T) {
		srv := newTestServer(t, nil)

		var res httpsvc.HealthResponse
		resp := doJSON(t, http.MethodGet, srv.URL+"/health", "", &res)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", res.Status)
	})

	t.Run("Should report unavailable store", func(t *testing.T) {
		srv := newTestServer(t, unhealthyDB{})

		var res httpsvc.HealthResponse
		resp := doJSON(t, http.MethodGet, srv.URL+"/health", "", &res)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "unavailable", res.Status)
	})

	t.Run("Should expose prometheus metrics", func(t *testing.T) {
		srv := newTestServer(t, nil)
		doJSON(t, http.MethodGet, srv.URL+"/products", "", nil)

		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, bytes.Contains(raw, []byte("stock_ledger_http_requests_total")))
	})

	t.Run("Should echo the correlation id", func(t *testing.T) {
		srv := newTestServer(t, nil)

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/products", nil)
		require.NoError(t, err)
		req.Header.Set(correlationid.Header, "req-42")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, "req-42", resp.Header.Get(correlationid.Header))
	})

	t.Run("Should serve the api docs", func(t *testing.T) {
		srv := newTestServer(t, nil)

		resp, err := http.Get(srv.URL + "/docs/openapi.json")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
