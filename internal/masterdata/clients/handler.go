package clients

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/soleilcom/gestion/internal/masterdata/shared"
	internalShared "github.com/soleilcom/gestion/internal/shared"
	"github.com/soleilcom/gestion/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *internalShared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *internalShared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r)

	clients, page, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list clients failed", slog.Any("error", err))
		h.render(w, r, "pages/clients_list.html", map[string]any{
			"Filters": filters,
			"Error":   internalShared.UserSafeMessage(err),
		}, http.StatusBadGateway)
		return
	}

	h.render(w, r, "pages/clients_list.html", map[string]any{
		"Clients": clients,
		"Filters": filters,
		"Page":    page,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/client_form.html", map[string]any{
		"Errors": map[string]string{},
		"Client": Client{},
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	client := Client{
		Nom:     strings.TrimSpace(r.PostFormValue("nom")),
		Prenom:  strings.TrimSpace(r.PostFormValue("prenom")),
		Email:   strings.TrimSpace(r.PostFormValue("email")),
		Contact: strings.TrimSpace(r.PostFormValue("contact")),
		Adresse: strings.TrimSpace(r.PostFormValue("adresse")),
	}

	if err := h.service.Create(r.Context(), client); err != nil {
		status := http.StatusUnprocessableEntity
		errs := internalShared.FieldErrors(err)
		if !errors.Is(err, internalShared.ErrValidation) {
			h.logger.Error("create client failed", slog.Any("error", err))
			status = http.StatusBadGateway
			errs = map[string]string{"general": internalShared.UserSafeMessage(err)}
		}
		h.render(w, r, "pages/client_form.html", map[string]any{
			"Errors": errs,
			"Client": client,
		}, status)
		return
	}

	h.redirectWithFlash(w, r, "/clients", "success", "Client "+client.DisplayName()+" ajouté avec succès")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := internalShared.SessionFromContext(r.Context())
	var csrfToken string
	var flash *internalShared.FlashMessage
	if sess != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Clients",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := internalShared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(internalShared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
