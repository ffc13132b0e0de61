package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soleilcom/gestion/internal/documents"
	"github.com/soleilcom/gestion/internal/finance"
	"github.com/soleilcom/gestion/internal/invoice"
	"github.com/soleilcom/gestion/internal/masterdata/clients"
	"github.com/soleilcom/gestion/internal/masterdata/suppliers"
	"github.com/soleilcom/gestion/internal/observability"
	"github.com/soleilcom/gestion/internal/shared"
	"github.com/soleilcom/gestion/internal/stock"
	"github.com/soleilcom/gestion/jobs"
	"github.com/soleilcom/gestion/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	DocumentsHandler *documents.Handler
	InvoiceHandler   *invoice.Handler
	FinanceHandler   *finance.Handler
	SuppliersHandler *suppliers.Handler
	ClientsHandler   *clients.Handler
	StockHandler     *stock.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with the application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	mw := MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}
	for _, m := range MiddlewareStack(mw) {
		r.Use(m)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
		for _, m := range PageMiddleware(mw) {
			r.Use(m)
		}
		if params.StockHandler != nil {
			params.StockHandler.MountRoutes(r)
		}
		if params.DocumentsHandler != nil {
			params.DocumentsHandler.MountRoutes(r)
		}
		if params.InvoiceHandler != nil {
			params.InvoiceHandler.MountRoutes(r)
		}
		if params.FinanceHandler != nil {
			params.FinanceHandler.MountRoutes(r)
		}
		if params.SuppliersHandler != nil {
			r.Route("/fournisseurs", params.SuppliersHandler.MountRoutes)
		}
		if params.ClientsHandler != nil {
			r.Route("/clients", params.ClientsHandler.MountRoutes)
		}
	})

	return r
}

// staticCacheHandler lets browsers keep static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
