package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradedesk/tradedesk/internal/auth"
	"github.com/tradedesk/tradedesk/internal/masterdata"
	"github.com/tradedesk/tradedesk/internal/observability"
	"github.com/tradedesk/tradedesk/internal/orders"
	"github.com/tradedesk/tradedesk/internal/platform/httpx"
	"github.com/tradedesk/tradedesk/jobs"
	"github.com/tradedesk/tradedesk/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger     *slog.Logger
	Config     *Config
	Metrics    *observability.Metrics
	Auth       *auth.Handler
	Orders     *orders.Handler
	MasterData *masterdata.Module
	Jobs       *jobs.Handler
	Reports    *report.Handler
}

// NewRouter constructs the API router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	if params.Jobs != nil {
		r.Route("/jobs", params.Jobs.MountRoutes)
	}
	if params.Reports != nil {
		r.Route("/reports", params.Reports.MountRoutes)
	}

	if params.Auth == nil {
		return r
	}
	params.Auth.MountRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(params.Auth.RequireAuth)
		params.Auth.MountSessionRoutes(r)
		if params.Orders != nil {
			params.Orders.MountRoutes(r)
		}
		if params.MasterData != nil {
			params.MasterData.MountRoutes(r, auth.RequireAdmin)
		}
	})
	return r
}
