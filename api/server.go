// Package api - Thin HTTP layer over the pricing engine
// The API is ONLY responsible for: input decoding, engine invocation, output
// serialization. It never prices anything itself.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"esim-pricing/adapters/storage"
	"esim-pricing/core/engine"
	"esim-pricing/internal/config"
	perrors "esim-pricing/internal/errors"
)

// Server is the API server
type Server struct {
	echo    *echo.Echo
	engine  *engine.Engine
	store   storage.Store
	logger  *zap.Logger
	cfg     config.ServerConfig
	version string
}

// Option customizes a Server
type Option func(*Server)

// WithStore keeps every resolved run for later lookup and comparison
func WithStore(store storage.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithLogger sets the request logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new API server
func NewServer(version string, eng *engine.Engine, cfg config.ServerConfig, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		engine:  eng,
		logger:  zap.NewNop(),
		cfg:     cfg,
		version: version,
	}
	for _, opt := range opts {
		opt(s)
	}

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	if cfg.MaxBodyBytes > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", cfg.MaxBodyBytes)))
	}
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}))

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/version", s.handleVersion)

	v1 := s.echo.Group("/v1")
	v1.POST("/quotes", s.handleQuotes)
	v1.POST("/discounts/validate", s.handleValidateDiscounts)

	v1.GET("/runs", s.handleListRuns)
	v1.GET("/runs/:id", s.handleGetRun)
	v1.GET("/runs/:id/compare/:other", s.handleCompareRuns)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.echo.Server.ReadTimeout = time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// handleError renders every failure in the ErrorBody envelope
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := http.StatusInternalServerError, ErrorDetail{
		Code:    string(perrors.TypeInternal),
		Message: err.Error(),
	}

	var he *echo.HTTPError
	var pe *perrors.Error
	switch {
	case errors.As(err, &pe):
		status = statusFor(pe.Type)
		detail = ErrorDetail{Code: string(pe.Type), Message: err.Error(), Context: pe.Context}
	case errors.As(err, &he):
		status = he.Code
		detail = ErrorDetail{Code: http.StatusText(he.Code), Message: fmt.Sprint(he.Message)}
	}
	detail.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err), zap.String("request_id", detail.RequestID))
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, ErrorBody{Error: detail})
}

func statusFor(t perrors.Type) int {
	switch t {
	case perrors.TypeInput, perrors.TypeParsing:
		return http.StatusBadRequest
	case perrors.TypeNotFound:
		return http.StatusNotFound
	case perrors.TypeConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
