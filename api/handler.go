package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"esim-pricing/adapters/storage"
	"esim-pricing/core/engine"
	"esim-pricing/core/types"
	perrors "esim-pricing/internal/errors"
)

// handleQuotes handles POST /v1/quotes
func (s *Server) handleQuotes(c echo.Context) error {
	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return perrors.Parsing("decode quote request", err)
	}
	if req.SelectedDays < 0 {
		return perrors.Input("selected_days must not be negative")
	}
	sortField, err := engine.ParseSortField(req.Sort)
	if err != nil {
		return perrors.Wrap(perrors.TypeInput, "invalid sort", err)
	}
	discounts, err := req.Discounts.Config()
	if err != nil {
		return err
	}
	rates, err := req.RateTable()
	if err != nil {
		return err
	}

	result := s.engine.Resolve(engine.Request{
		Plans:        req.Plans,
		Discounts:    discounts,
		Rates:        rates,
		Currency:     types.Currency(req.Currency),
		SelectedDays: req.SelectedDays,
	})
	if req.Sort != "" {
		result.Quotes = engine.SortQuotes(result.Quotes, sortField, req.Desc)
	}

	if s.store != nil {
		if err := s.store.Save(c.Request().Context(), result); err != nil {
			return perrors.Wrap(perrors.TypeInternal, "store run", err)
		}
	}

	return c.JSON(http.StatusOK, QuoteResponse{
		Result: result,
		Groups: engine.GroupBySize(result.Quotes),
	})
}

// handleValidateDiscounts handles POST /v1/discounts/validate
func (s *Server) handleValidateDiscounts(c echo.Context) error {
	var in DiscountInput
	if err := c.Bind(&in); err != nil {
		return perrors.Parsing("decode discount config", err)
	}
	cfg, err := in.Config()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DiscountValidation{
		Config:     cfg,
		ConfigHash: cfg.Hash().Hex(),
		Entries:    cfg.Len(),
	})
}

// handleListRuns handles GET /v1/runs
func (s *Server) handleListRuns(c echo.Context) error {
	store, err := s.requireStore()
	if err != nil {
		return err
	}
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return perrors.Inputf("limit %q must be a positive integer", raw)
		}
		limit = n
	}
	runs, err := store.List(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// handleGetRun handles GET /v1/runs/:id
func (s *Server) handleGetRun(c echo.Context) error {
	store, err := s.requireStore()
	if err != nil {
		return err
	}
	id, err := runID(c.Param("id"))
	if err != nil {
		return err
	}
	result, err := store.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// handleCompareRuns handles GET /v1/runs/:id/compare/:other
func (s *Server) handleCompareRuns(c echo.Context) error {
	store, err := s.requireStore()
	if err != nil {
		return err
	}
	oldID, err := runID(c.Param("id"))
	if err != nil {
		return err
	}
	newID, err := runID(c.Param("other"))
	if err != nil {
		return err
	}
	diff, err := storage.Compare(c.Request().Context(), store, oldID, newID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, diff)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleVersion handles GET /version
func (s *Server) handleVersion(c echo.Context) error {
	cfg := s.engine.Config()
	return c.JSON(http.StatusOK, map[string]string{
		"version":          s.version,
		"engine":           "esim-pricing",
		"api_version":      "v1",
		"default_currency": cfg.DefaultCurrency.String(),
		"dedup_tiebreak":   cfg.Tiebreak.String(),
	})
}

func (s *Server) requireStore() (storage.Store, error) {
	if s.store == nil {
		return nil, perrors.New(perrors.TypeConfig, "run storage is disabled")
	}
	return s.store, nil
}

func runID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, perrors.Wrap(perrors.TypeInput, "invalid run id", err).WithContext("run_id", raw)
	}
	return id, nil
}
