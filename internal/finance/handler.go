package finance

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/soleilcom/gestion/internal/shared"
	"github.com/soleilcom/gestion/internal/view"
)

const requestTimeout = 5 * time.Second

// Handler serves the finance dashboard.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	csvPool   sync.Pool
}

// NewHandler constructs the finance HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	h := &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

// MountRoutes registers finance endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/finance", h.handleDashboard)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/finance/export.csv", h.handleCSV)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		h.render(w, r, map[string]any{"Periods": Periods, "Period": Period(""), "Error": "Période inconnue"}, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.service.Report(ctx, period)
	if err != nil {
		h.logger.Error("load finance report", slog.String("period", string(period)), slog.Any("error", err))
		h.render(w, r, map[string]any{"Periods": Periods, "Period": period, "Error": shared.UserSafeMessage(err)}, http.StatusBadGateway)
		return
	}
	h.render(w, r, map[string]any{"Periods": Periods, "Period": period, "Report": report}, http.StatusOK)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		http.Error(w, "période inconnue", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.service.Report(ctx, period)
	if err != nil {
		h.logger.Error("load finance report", slog.String("period", string(period)), slog.Any("error", err))
		http.Error(w, shared.UserSafeMessage(err), http.StatusBadGateway)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := WriteReportCSV(buf, report); err != nil {
		h.logger.Error("write finance csv", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("rapport-finance-%s-%s.csv", period, report.GeneratedAt.Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("stream csv", slog.Any("error", err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	var csrfToken string
	var flash *shared.FlashMessage
	if sess != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Finances", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/finance.html", viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
