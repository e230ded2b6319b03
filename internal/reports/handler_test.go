package reports

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/valuation"
)

type stubReportService struct {
	builds  int
	entries map[string]valuation.CashEntry
}

func (s *stubReportService) BuildPeriodReport(ctx context.Context, window shared.Window) (*valuation.PeriodReport, error) {
	s.builds++
	return &valuation.PeriodReport{
		Window:       window,
		SalesRevenue: 120,
		COGS:         46,
		GrossProfit:  74,
		GeneratedAt:  time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (s *stubReportService) RecordCashEntry(ctx context.Context, kind valuation.EntryKind, date time.Time, amount float64, description string) (*valuation.CashEntry, error) {
	if amount <= 0 {
		return nil, valuation.ErrAmountNotPositive
	}
	entry := valuation.CashEntry{ID: "e-1", Kind: kind, Date: date, Amount: amount, Description: description}
	if s.entries == nil {
		s.entries = make(map[string]valuation.CashEntry)
	}
	s.entries[entry.ID] = entry
	return &entry, nil
}

func (s *stubReportService) ListCashEntries(ctx context.Context, kind valuation.EntryKind) ([]valuation.CashEntry, error) {
	var out []valuation.CashEntry
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

func (s *stubReportService) DeleteCashEntry(ctx context.Context, id string) error {
	delete(s.entries, id)
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *stubReportService, chi.Router) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	service := &stubReportService{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, service, NewCache(client, time.Minute))

	r := chi.NewRouter()
	h.MountRoutes(r)
	return h, service, r
}

func TestPeriodReportServedFromCache(t *testing.T) {
	_, service, router := newTestHandler(t)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/period?from=2026-03-01&to=2026-03-31", nil)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var report valuation.PeriodReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		require.InDelta(t, 74.0, report.GrossProfit, 1e-9)
	}

	// Second request never reached the engine.
	require.Equal(t, 1, service.builds)
}

func TestPeriodReportRejectsBadWindow(t *testing.T) {
	_, _, router := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/period?from=2026-03-31&to=2026-03-01", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCashEntryBumpsCache(t *testing.T) {
	_, service, router := newTestHandler(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/period?from=2026-03-01&to=2026-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, service.builds)

	body := strings.NewReader(`{"kind":"expense","amount":120,"description":"rent"}`)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cash-entries", body))
	require.Equal(t, http.StatusCreated, rec.Code)

	// The bump invalidated the cached report.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/period?from=2026-03-01&to=2026-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, service.builds)
}

func TestCashEntryValidation(t *testing.T) {
	_, _, router := newTestHandler(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cash-entries", strings.NewReader(`{"kind":"transfer","amount":5}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cash-entries", strings.NewReader(`{"kind":"income","amount":10,"date":"03/01/2026"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWarmPrimesCache(t *testing.T) {
	h, service, router := newTestHandler(t)

	window, err := shared.ParseWindow("2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.NoError(t, h.Warm(context.Background(), window))
	require.Equal(t, 1, service.builds)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/period?from=2026-03-01&to=2026-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, service.builds)
}

func TestCacheWithoutRedisStillServes(t *testing.T) {
	service := &stubReportService{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, service, NewCache(nil, time.Minute))

	window, err := shared.ParseWindow("2026-03-01", "2026-03-31")
	require.NoError(t, err)

	report, err := h.buildCached(context.Background(), window)
	require.NoError(t, err)
	require.InDelta(t, 120.0, report.SalesRevenue, 1e-9)

	_, err = h.buildCached(context.Background(), window)
	require.NoError(t, err)
	require.Equal(t, 2, service.builds)
}
