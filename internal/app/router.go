package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/checkflow"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/ledger"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/masterdata"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/reports"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	LedgerHandler     *ledger.Handler
	MasterDataHandler *masterdata.Handler
	CheckFlowHandler  *checkflow.Handler
	ReportsHandler    *reports.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", params.LedgerHandler.MountRoutes)
		r.Route("/check-flows", params.CheckFlowHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
		params.MasterDataHandler.MountRoutes(r)
	})

	return r
}
