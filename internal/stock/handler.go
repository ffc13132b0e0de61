package stock

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/soleilcom/gestion/internal/masterdata/shared"
	appshared "github.com/soleilcom/gestion/internal/shared"
	"github.com/soleilcom/gestion/internal/view"
)

// Handler serves the home page and the stock pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *appshared.CSRFManager
	csvPool   sync.Pool
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *appshared.CSRFManager) *Handler {
	h := &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

// MountRoutes registers the home page and stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Route("/stock", func(r chi.Router) {
		r.Get("/articles/new", h.handleArticleForm)
		r.Post("/articles", h.handleArticleCreate)
		r.Get("/inventaire", h.handleInventory)
		r.With(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).
			Get("/inventaire/export.csv", h.handleInventoryCSV)
		r.Get("/entrees", h.handleEntries)
		r.Post("/entrees", h.handleEntryCreate)
		r.Get("/sorties", h.handleExits)
		r.Post("/sorties", h.handleExitCreate)
	})
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.CategoryCounts(r.Context())
	if err != nil {
		h.logger.Error("load home counts", slog.Any("error", err))
		h.render(w, r, "pages/home.html", "Accueil", map[string]any{
			"Error": appshared.UserSafeMessage(err),
		}, http.StatusOK)
		return
	}
	total := 0
	for _, c := range counts {
		total += c.Quantity
	}
	h.render(w, r, "pages/home.html", "Accueil", map[string]any{
		"Categories": counts,
		"Total":      total,
	}, http.StatusOK)
}

func (h *Handler) handleArticleForm(w http.ResponseWriter, r *http.Request) {
	h.renderArticleForm(w, r, ArticleInput{}, map[string]string{}, http.StatusOK)
}

func (h *Handler) handleArticleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	in := ArticleInput{
		Designation:     strings.TrimSpace(r.PostFormValue("designation")),
		Caracteristique: strings.TrimSpace(r.PostFormValue("caracteristique")),
		Quantite:        formInt(r.PostFormValue("quantite")),
		CategorieID:     formID(r.PostFormValue("categorie")),
		TypeArticleID:   formID(r.PostFormValue("type")),
	}
	if err := h.service.CreateArticle(r.Context(), in); err != nil {
		status, errs := h.formFailure(err, "create article")
		h.renderArticleForm(w, r, in, errs, status)
		return
	}
	h.redirectWithFlash(w, r, "/stock/inventaire", "success", "Article "+in.Designation+" créé")
}

func (h *Handler) renderArticleForm(w http.ResponseWriter, r *http.Request, in ArticleInput, errs map[string]string, status int) {
	choices := h.service.Choices(r.Context())
	h.render(w, r, "pages/stock_article_form.html", "Nouvel article", map[string]any{
		"Article":  in,
		"Choices":  choices,
		"Warnings": choices.Warnings,
		"Errors":   errs,
	}, status)
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r)
	filters.Limit = InventoryLimit
	categoryID := formID(r.URL.Query().Get("categorie"))
	if categoryID > 0 {
		filters.Extra = url.Values{"categorie": {strconv.FormatInt(categoryID, 10)}}
	}

	rows, page, choices, err := h.service.Inventory(r.Context(), filters, categoryID)
	data := map[string]any{
		"Filters":  filters,
		"Category": categoryID,
		"Choices":  choices,
		"Warnings": choices.Warnings,
	}
	if err != nil {
		h.logger.Error("load inventory", slog.Any("error", err))
		data["Error"] = appshared.UserSafeMessage(err)
		h.render(w, r, "pages/stock_inventory.html", "Inventaire", data, http.StatusBadGateway)
		return
	}
	data["Rows"] = rows
	data["Page"] = page
	data["ExportQuery"] = filters.Query(1)
	h.render(w, r, "pages/stock_inventory.html", "Inventaire", data, http.StatusOK)
}

func (h *Handler) handleInventoryCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.service.InventoryExport(r.Context(), strings.TrimSpace(q.Get("search")), formID(q.Get("categorie")))
	if err != nil {
		h.logger.Error("export inventory", slog.Any("error", err))
		http.Error(w, appshared.UserSafeMessage(err), http.StatusBadGateway)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer h.csvPool.Put(buf)
	if err := WriteInventoryCSV(buf, rows); err != nil {
		h.logger.Error("write inventory csv", slog.Any("error", err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="inventaire.csv"`)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("stream csv", slog.Any("error", err))
	}
}

func (h *Handler) handleEntries(w http.ResponseWriter, r *http.Request) {
	mode := ParseMode(r.URL.Query().Get("mode"))
	h.renderEntries(w, r, mode, EntryInput{Mode: mode}, uuid.NewString(), map[string]string{}, http.StatusOK)
}

func (h *Handler) renderEntries(w http.ResponseWriter, r *http.Request, mode Mode, in EntryInput, requestID string, errs map[string]string, status int) {
	filters := movementFilters(r, mode)
	rows, page, choices, err := h.service.Entries(r.Context(), mode, filters)
	data := map[string]any{
		"Mode":      mode,
		"Filters":   filters,
		"Entry":     in,
		"RequestID": requestID,
		"Choices":   choices,
		"Warnings":  choices.Warnings,
		"Errors":    errs,
		"Rows":      rows,
		"Page":      page,
	}
	if err != nil {
		h.logger.Error("load entries", slog.Any("error", err))
		data["Error"] = appshared.UserSafeMessage(err)
		if status == http.StatusOK {
			status = http.StatusBadGateway
		}
	}
	h.render(w, r, "pages/stock_entries.html", "Entrées de stock", data, status)
}

func (h *Handler) handleEntryCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	mode := ParseMode(r.PostFormValue("mode"))
	in := EntryInput{
		Mode:            mode,
		Designation:     strings.TrimSpace(r.PostFormValue("designation")),
		Caracteristique: strings.TrimSpace(r.PostFormValue("caracteristique")),
		Quantite:        formInt(r.PostFormValue("quantite")),
		TypeArticleID:   formID(r.PostFormValue("type")),
		Fournisseur:     strings.TrimSpace(r.PostFormValue("fournisseur")),
		NumeroFacture:   strings.TrimSpace(r.PostFormValue("numero_facture")),
		DateFacture:     strings.TrimSpace(r.PostFormValue("date_facture")),
	}
	requestID := r.PostFormValue("request_id")
	location := "/stock/entrees?mode=" + string(mode)

	switch err := h.service.CreateEntry(r.Context(), requestID, in); {
	case err == nil:
		h.redirectWithFlash(w, r, location, "success", "Entrée enregistrée")
	case errors.Is(err, ErrDuplicateMovement):
		h.redirectWithFlash(w, r, location, "info", "Cette entrée a déjà été enregistrée")
	default:
		status, errs := h.formFailure(err, "create entry")
		h.renderEntries(w, r, mode, in, requestID, errs, status)
	}
}

func (h *Handler) handleExits(w http.ResponseWriter, r *http.Request) {
	mode := ParseMode(r.URL.Query().Get("mode"))
	h.renderExits(w, r, mode, ExitInput{Mode: mode}, uuid.NewString(), map[string]string{}, http.StatusOK)
}

func (h *Handler) renderExits(w http.ResponseWriter, r *http.Request, mode Mode, in ExitInput, requestID string, errs map[string]string, status int) {
	filters := movementFilters(r, mode)
	rows, page, choices, err := h.service.Exits(r.Context(), mode, filters)
	data := map[string]any{
		"Mode":      mode,
		"Filters":   filters,
		"Exit":      in,
		"RequestID": requestID,
		"Choices":   choices,
		"Warnings":  choices.Warnings,
		"Errors":    errs,
		"Rows":      rows,
		"Page":      page,
	}
	if err != nil {
		h.logger.Error("load exits", slog.Any("error", err))
		data["Error"] = appshared.UserSafeMessage(err)
		if status == http.StatusOK {
			status = http.StatusBadGateway
		}
	}
	h.render(w, r, "pages/stock_exits.html", "Sorties de stock", data, status)
}

func (h *Handler) handleExitCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	mode := ParseMode(r.PostFormValue("mode"))
	in := ExitInput{
		Mode:            mode,
		Designation:     strings.TrimSpace(r.PostFormValue("designation")),
		Caracteristique: strings.TrimSpace(r.PostFormValue("caracteristique")),
		Quantite:        formInt(r.PostFormValue("quantite")),
		TypeArticleID:   formID(r.PostFormValue("type")),
		Motif:           strings.TrimSpace(r.PostFormValue("motif")),
		Service:         strings.TrimSpace(r.PostFormValue("service")),
		Destinataire:    strings.TrimSpace(r.PostFormValue("destinataire")),
		NumeroBonSortie: strings.TrimSpace(r.PostFormValue("numero_bon_sortie")),
		DateSortie:      strings.TrimSpace(r.PostFormValue("date_sortie")),
		Departement:     strings.TrimSpace(r.PostFormValue("departement")),
	}
	requestID := r.PostFormValue("request_id")
	location := "/stock/sorties?mode=" + string(mode)

	switch err := h.service.CreateExit(r.Context(), requestID, in); {
	case err == nil:
		h.redirectWithFlash(w, r, location, "success", "Sortie enregistrée")
	case errors.Is(err, ErrDuplicateMovement):
		h.redirectWithFlash(w, r, location, "info", "Cette sortie a déjà été enregistrée")
	default:
		status, errs := h.formFailure(err, "create exit")
		h.renderExits(w, r, mode, in, requestID, errs, status)
	}
}

// formFailure maps a create error to a status and the form error map.
func (h *Handler) formFailure(err error, action string) (int, map[string]string) {
	switch {
	case errors.Is(err, appshared.ErrValidation):
		return http.StatusUnprocessableEntity, appshared.FieldErrors(err)
	case errors.Is(err, ErrInvalidRequestID):
		return http.StatusBadRequest, map[string]string{"general": "Formulaire expiré, veuillez recharger la page"}
	default:
		h.logger.Error(action+" failed", slog.Any("error", err))
		return http.StatusBadGateway, map[string]string{"general": appshared.UserSafeMessage(err)}
	}
}

func movementFilters(r *http.Request, mode Mode) shared.ListFilters {
	filters := shared.ParseListFilters(r)
	filters.Limit = MovementLimit
	filters.Extra = url.Values{"mode": {string(mode)}}
	return filters
}

// formInt parses a quantity. Blank is zero; garbage is negative so that
// validation rejects it.
func formInt(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

func formID(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any, status int) {
	sess := appshared.SessionFromContext(r.Context())
	var csrfToken string
	var flash *appshared.FlashMessage
	if sess != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
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
	if sess := appshared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(appshared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
