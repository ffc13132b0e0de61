package invoice

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soleilcom/gestion/internal/documents"
	"github.com/soleilcom/gestion/internal/shared"
	"github.com/soleilcom/gestion/internal/view"
)

// Handler serves invoice pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/factures/{type}/{id}", h.showInvoice)
}

func (h *Handler) showInvoice(w http.ResponseWriter, r *http.Request) {
	kind, err := documents.ParseKind(chi.URLParam(r, "type"))
	if err != nil {
		h.renderError(w, r, http.StatusNotFound, "Type de document inconnu")
		return
	}
	inv, err := h.service.Invoice(r.Context(), kind, chi.URLParam(r, "id"))
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotFound):
		h.renderError(w, r, http.StatusNotFound, "Document introuvable")
		return
	default:
		h.logger.Error("load invoice", slog.String("kind", string(kind)), slog.Any("error", err))
		h.renderError(w, r, http.StatusBadGateway, shared.UserSafeMessage(err))
		return
	}
	h.render(w, r, "pages/invoice.html", "Facture "+inv.Number, map[string]any{"Invoice": inv}, http.StatusOK)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, "pages/error.html", "Facture", map[string]any{"Message": message}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	var csrfToken string
	var flash *shared.FlashMessage
	if sess != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: title, CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
