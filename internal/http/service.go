package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/stock-ledger/internal/apperr"
	"github.com/tuanvumaihuynh/stock-ledger/internal/config"
	"github.com/tuanvumaihuynh/stock-ledger/internal/http/apierr"
	"github.com/tuanvumaihuynh/stock-ledger/internal/http/metric"
	"github.com/tuanvumaihuynh/stock-ledger/internal/http/middleware"
	"github.com/tuanvumaihuynh/stock-ledger/internal/http/swagger"
	"github.com/tuanvumaihuynh/stock-ledger/internal/service"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/db"
	"github.com/tuanvumaihuynh/stock-ledger/pkg/validator"
)

var tracer = otel.Tracer("internal/http")

const healthCheckTimeout = 2 * time.Second

// Service represents the HTTP service.
type Service struct {
	cfg       config.HTTP
	logger    *slog.Logger
	metrics   *metric.Metrics
	validator validator.Validator

	ledgerSvc     service.LedgerService
	healthChecker db.HealthChecker
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	log *slog.Logger,
	ledgerSvc service.LedgerService,
	healthChecker db.HealthChecker,
) (*Service, error) {
	v, err := validator.NewDefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("new validator: %w", err)
	}

	return &Service{
		cfg:           cfg,
		logger:        log.With(slog.String("service", "http")),
		metrics:       metric.New(),
		validator:     v,
		ledgerSvc:     ledgerSvc,
		healthChecker: healthChecker,
	}, nil
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	handler, err := s.Handler()
	if err != nil {
		return nil, err
	}

	return s.RunWithServer(ctx, handler)
}

// Handler builds the router with every middleware and route registered.
func (s *Service) Handler() (http.Handler, error) {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		if err := swagger.Register(r); err != nil {
			return nil, fmt.Errorf("register swagger: %w", err)
		}
	}

	s.RegisterHandlers(r)

	return r, nil
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}

	s.logger.InfoContext(ctx, "http server listening", slog.String("addr", ln.Addr().String()))

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.ErrorContext(ctx, "http server stopped", slog.Any("error", err))
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(s.cfg),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	h := newProductHandler(s.ledgerSvc, s.validator)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.handle(h.ListProducts))
		r.Post("/", s.handle(h.CreateProduct))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handle(h.GetProductSummary))
			r.Post("/increase", s.handle(h.IncreaseStock))
			r.Post("/decrease", s.handle(h.DecreaseStock))
			r.Get("/transactions", s.handle(h.ListTransactions))
			r.Get("/ledger", s.handle(h.VerifyLedger))
		})
	})

	r.Get("/health", s.handleHealth)

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apierr.RouteNotFoundErr)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apierr.MethodNotAllowedErr)
	})
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts a handler returning an error into an http.HandlerFunc.
func (s *Service) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		var written *responseWrittenError
		switch {
		case errors.As(err, &written):
			s.logger.WarnContext(r.Context(), "error writing response", slog.Any("error", err))
		case isRequestError(err):
			s.handleRequestError(w, r, err)
		default:
			s.handleResponseError(w, r, err)
		}
	}
}

func isRequestError(err error) bool {
	var (
		paramErr      *apierr.InvalidParamFormatError
		bodyErr       *apierr.InvalidBodyError
		validationErr govalidator.ValidationErrors
	)

	return errors.As(err, &paramErr) || errors.As(err, &bodyErr) || errors.As(err, &validationErr)
}

func (s *Service) handleRequestError(w http.ResponseWriter, r *http.Request, err error) {
	err = apperr.ValidationErr.WrapParent(err)
	res := apierr.New(err)

	s.logger.DebugContext(r.Context(), "http request error", slog.Any("error", err))
	s.writeError(w, r, res)
}

func (s *Service) handleResponseError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	s.writeError(w, r, res)
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, res apierr.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding error response",
			slog.Any("error", err))
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status, res := http.StatusOK, HealthResponse{Status: "ok"}
	if ok, err := s.healthChecker.IsHealthy(ctx); !ok || err != nil {
		s.logger.WarnContext(ctx, "health check failed", slog.Any("error", err))
		status, res = http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"}
	}

	if err := writeJSON(w, status, res); err != nil {
		s.logger.WarnContext(ctx, "error writing response", slog.Any("error", err))
	}
}
