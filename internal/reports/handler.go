// Package reports exposes period financial reports over HTTP, with a
// short-lived Redis cache in front of the valuation engine.
package reports

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/platform/httpx"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/valuation"
)

// ReportService builds period reports.
type ReportService interface {
	BuildPeriodReport(ctx context.Context, window shared.Window) (*valuation.PeriodReport, error)
	RecordCashEntry(ctx context.Context, kind valuation.EntryKind, date time.Time, amount float64, description string) (*valuation.CashEntry, error)
	ListCashEntries(ctx context.Context, kind valuation.EntryKind) ([]valuation.CashEntry, error)
	DeleteCashEntry(ctx context.Context, id string) error
}

// Handler coordinates HTTP requests for period reports and manual entries.
type Handler struct {
	logger   *slog.Logger
	service  ReportService
	cache    *Cache
	validate *validator.Validate
	builds   singleflight.Group
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, service ReportService, cache *Cache) *Handler {
	return &Handler{logger: logger, service: service, cache: cache, validate: validator.New()}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/period", h.periodReport)
	r.Route("/cash-entries", func(r chi.Router) {
		r.Get("/", h.listEntries)
		r.Post("/", h.createEntry)
		r.Delete("/{id}", h.deleteEntry)
	})
}

func (h *Handler) periodReport(w http.ResponseWriter, r *http.Request) {
	window, err := shared.ParseWindow(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from and to must be yyyy-mm-dd with from <= to")
		return
	}
	report, err := h.buildCached(r.Context(), window)
	if err != nil {
		h.logger.Error("build period report", slog.Any("error", err), slog.String("window", window.Key()))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// buildCached serves the report from Redis when fresh, collapsing
// concurrent identical builds through singleflight.
func (h *Handler) buildCached(ctx context.Context, window shared.Window) (*valuation.PeriodReport, error) {
	key, err := h.cache.BuildKey(ctx, "reports", "period", window.Key())
	if err != nil {
		return nil, err
	}
	result, err, _ := h.builds.Do(key, func() (any, error) {
		var report valuation.PeriodReport
		err := h.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
			return h.service.BuildPeriodReport(ctx, window)
		})
		if err != nil {
			return nil, err
		}
		return &report, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*valuation.PeriodReport), nil
}

// Warm primes the cache for a window. Used by the background warmup job.
func (h *Handler) Warm(ctx context.Context, window shared.Window) error {
	_, err := h.buildCached(ctx, window)
	return err
}

type cashEntryRequest struct {
	Kind        string  `json:"kind" validate:"required,oneof=income expense"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description"`
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	var req cashEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be yyyy-mm-dd")
			return
		}
		date = parsed
	}
	entry, err := h.service.RecordCashEntry(r.Context(), valuation.EntryKind(req.Kind), date, req.Amount, req.Description)
	if err != nil {
		if errors.Is(err, valuation.ErrAmountNotPositive) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("record cash entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	// Manual entries feed the report, so cached responses are stale now.
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("bump report cache", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	kind := valuation.EntryKind(r.URL.Query().Get("kind"))
	entries, err := h.service.ListCashEntries(r.Context(), kind)
	if err != nil {
		h.logger.Error("list cash entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCashEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("bump report cache", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
