package documents

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/soleilcom/gestion/internal/backend"
	"github.com/soleilcom/gestion/internal/platform/httpx"
	"github.com/soleilcom/gestion/internal/pricing"
	"github.com/soleilcom/gestion/internal/refdata"
	"github.com/soleilcom/gestion/internal/shared"
	"github.com/soleilcom/gestion/internal/view"
)

// Handler manages achat and vente endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	drafts    DraftStore
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, sessions: sessions}
}

// MountRoutes registers /achats and /ventes.
func (h *Handler) MountRoutes(r chi.Router) {
	for _, kind := range []Kind{KindAchat, KindVente} {
		kind := kind
		r.Route("/"+kind.Plural(), func(r chi.Router) {
			r.Get("/", h.showStats(kind))
			r.Get("/new", h.showForm(kind))
			r.Post("/", h.submit(kind))
			r.Post("/header", h.updateHeader(kind))
			r.Post("/lines", h.addLine(kind))
			r.Post("/lines/{index}", h.updateLine(kind))
			r.Post("/lines/{index}/delete", h.removeLine(kind))
			r.Post("/reset", h.reset(kind))
			r.Post("/preview", h.preview(kind))
		})
	}
}

func (h *Handler) showStats(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.service.Stats(r.Context(), kind)
		if err != nil {
			h.logger.Error("load document stats", slog.String("kind", string(kind)), slog.Any("error", err))
			h.render(w, r, "pages/documents_state.html", kind.Title()+"s", map[string]any{
				"Kind":  kind,
				"Error": shared.UserSafeMessage(err),
			}, http.StatusBadGateway)
			return
		}
		h.render(w, r, "pages/documents_state.html", kind.Title()+"s", map[string]any{
			"Kind":  kind,
			"Stats": stats,
		}, http.StatusOK)
	}
}

func (h *Handler) showForm(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := h.loadDraft(w, r, kind)
		if !ok {
			return
		}
		form := defaultLineForm()
		editIndex := -1
		if raw := r.URL.Query().Get("edit"); raw != "" {
			if i, ok := parseIndex(raw); ok && i < len(d.Items) {
				editIndex = i
				form = lineFormFromItem(d.Items[i])
			}
		}
		h.renderForm(w, r, d, form, editIndex, formErrors{}, http.StatusOK)
	}
}

func (h *Handler) addLine(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.saveLine(w, r, kind, -1)
	}
}

func (h *Handler) updateLine(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, ok := parseIndex(chi.URLParam(r, "index"))
		if !ok {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		h.saveLine(w, r, kind, i)
	}
}

func (h *Handler) saveLine(w http.ResponseWriter, r *http.Request, kind Kind, index int) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	d, ok := h.loadDraft(w, r, kind)
	if !ok {
		return
	}
	form := readLineForm(r)
	snap := h.service.refs.Load(r.Context(), refdata.SourceArticles, refdata.SourceTypes)
	item, errs := form.toItem(snap)
	if len(errs) > 0 {
		h.renderForm(w, r, d, form, index, errs, http.StatusUnprocessableEntity)
		return
	}

	var err error
	if index < 0 {
		err = d.AddLine(item)
	} else {
		err = d.UpdateLine(index, item)
	}
	switch {
	case errors.Is(err, ErrLineIndex):
		h.redirectWithFlash(w, r, newPath(kind), "warning", "Cette ligne n'existe plus")
		return
	case err != nil:
		h.renderForm(w, r, d, form, index, engineErrors(err), http.StatusUnprocessableEntity)
		return
	}
	if !h.saveDraft(w, r, d) {
		return
	}
	http.Redirect(w, r, newPath(kind), http.StatusSeeOther)
}

func (h *Handler) removeLine(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, ok := parseIndex(chi.URLParam(r, "index"))
		if !ok {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		d, ok := h.loadDraft(w, r, kind)
		if !ok {
			return
		}
		if err := d.RemoveLine(i); err != nil {
			h.redirectWithFlash(w, r, newPath(kind), "warning", "Cette ligne n'existe plus")
			return
		}
		if !h.saveDraft(w, r, d) {
			return
		}
		http.Redirect(w, r, newPath(kind), http.StatusSeeOther)
	}
}

func (h *Handler) updateHeader(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		d, ok := h.loadDraft(w, r, kind)
		if !ok {
			return
		}
		if errs := applyHeader(d, r); len(errs) > 0 {
			h.renderForm(w, r, d, defaultLineForm(), -1, errs, http.StatusUnprocessableEntity)
			return
		}
		if !h.saveDraft(w, r, d) {
			return
		}
		http.Redirect(w, r, newPath(kind), http.StatusSeeOther)
	}
}

func (h *Handler) submit(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		d, ok := h.loadDraft(w, r, kind)
		if !ok {
			return
		}
		if posted := submittedDraftID(r); posted != "" && posted != d.ID.String() {
			h.redirectWithFlash(w, r, newPath(kind), "warning", "Ce formulaire n'est plus à jour, vérifiez le brouillon")
			return
		}
		if errs := applyHeader(d, r); len(errs) > 0 {
			h.renderForm(w, r, d, defaultLineForm(), -1, errs, http.StatusUnprocessableEntity)
			return
		}

		err := h.service.Submit(r.Context(), d)
		switch {
		case err == nil:
			h.drafts.Clear(shared.SessionFromContext(r.Context()), kind)
			h.redirectWithFlash(w, r, "/"+kind.Plural(), "success", kind.Title()+" enregistré avec succès")
		case errors.Is(err, ErrDuplicateSubmission):
			// The first submission may still fail, so the draft stays.
			h.redirectWithFlash(w, r, "/"+kind.Plural(), "info", "Ce document a déjà été soumis")
		case errors.Is(err, ErrDraftIncomplete):
			h.saveDraft(w, r, d)
			h.renderForm(w, r, d, defaultLineForm(), -1, validationErrors(err), http.StatusUnprocessableEntity)
		case errors.Is(err, ErrInvalidTransition):
			h.redirectWithFlash(w, r, newPath(kind), "warning", "Ajoutez au moins un article avant d'enregistrer")
		default:
			h.logger.Error("submit document", slog.String("kind", string(kind)), slog.Any("error", err))
			if !h.saveDraft(w, r, d) {
				return
			}
			status := http.StatusBadGateway
			if errors.Is(err, backend.ErrRejected) {
				status = http.StatusUnprocessableEntity
			}
			h.renderForm(w, r, d, defaultLineForm(), -1, formErrors{"general": "Échec de l'enregistrement, le brouillon est conservé : " + shared.UserSafeMessage(err)}, status)
		}
	}
}

func (h *Handler) reset(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.drafts.Clear(shared.SessionFromContext(r.Context()), kind)
		h.redirectWithFlash(w, r, newPath(kind), "info", "Brouillon vidé")
	}
}

type previewLine struct {
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Quantity     int             `json:"quantity"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	TaxRate      decimal.Decimal `json:"taxRate"`
}

type previewRequest struct {
	Lines                 []previewLine   `json:"lines"`
	GlobalDiscountPercent decimal.Decimal `json:"globalDiscountPercent"`
}

type previewLineResult struct {
	GrossAmount    string `json:"grossAmount"`
	DiscountAmount string `json:"discountAmount"`
	TaxAmount      string `json:"taxAmount"`
	NetAmount      string `json:"netAmount"`
}

type previewResponse struct {
	Lines  []previewLineResult `json:"lines"`
	Totals map[string]string   `json:"totals"`
}

// preview computes totals for posted lines, or for the session draft when
// the body carries no lines.
func (h *Handler) preview(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req previewRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
			return
		}
		items := make([]pricing.LineItem, 0, len(req.Lines))
		for _, l := range req.Lines {
			items = append(items, pricing.LineItem{UnitPrice: l.UnitPrice, Quantity: l.Quantity, DiscountRate: l.DiscountRate, TaxRate: l.TaxRate})
		}
		percent := req.GlobalDiscountPercent
		if req.Lines == nil {
			d, err := h.drafts.Load(shared.SessionFromContext(r.Context()), kind)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			items = d.Items
			percent = d.GlobalDiscountPercent
		}

		lines, idx, err := pricing.ComputeLines(items)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Line", "line "+strconv.Itoa(idx+1)+": "+err.Error())
			return
		}
		totals, err := pricing.AggregateLines(lines, percent)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Discount", err.Error())
			return
		}

		resp := previewResponse{Lines: make([]previewLineResult, 0, len(lines))}
		for _, l := range lines {
			resp.Lines = append(resp.Lines, previewLineResult{
				GrossAmount:    fixed(l.GrossAmount),
				DiscountAmount: fixed(l.DiscountAmount),
				TaxAmount:      fixed(l.TaxAmount),
				NetAmount:      fixed(l.NetAmount),
			})
		}
		resp.Totals = map[string]string{
			"totalGross":            fixed(totals.TotalGross),
			"totalDiscount":         fixed(totals.TotalDiscount),
			"totalTax":              fixed(totals.TotalTax),
			"globalDiscountPercent": totals.GlobalDiscountPercent.String(),
			"globalDiscountAmount":  fixed(totals.GlobalDiscountAmount),
			"netPayable":            fixed(totals.NetPayable),
		}
		httpx.JSON(w, http.StatusOK, resp)
	}
}

func fixed(d decimal.Decimal) string {
	return pricing.Round2(d).StringFixed(2)
}

func applyHeader(d *Draft, r *http.Request) formErrors {
	errs := formErrors{}
	partyID, _ := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("party_id")), 10, 64)
	if err := d.SetHeader(partyID, r.PostFormValue("date")); err != nil {
		errs["general"] = err.Error()
		return errs
	}
	percent, err := parseDecimal(r.PostFormValue("global_discount"), decimal.Zero)
	if err != nil {
		errs["global_discount"] = "Remise globale invalide"
		return errs
	}
	if err := d.SetGlobalDiscount(percent); err != nil {
		return engineErrors(err)
	}
	return errs
}

func submittedDraftID(r *http.Request) string {
	if key := r.Header.Get(backend.IdempotencyHeader); key != "" {
		return key
	}
	return r.PostFormValue("draft_id")
}

func validationErrors(err error) formErrors {
	errs := formErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["general"] = shared.UserSafeMessage(err)
		return errs
	}
	for _, fe := range verrs {
		field := draftFieldNames[fe.Field()]
		if field == "" {
			field = "general"
		}
		errs[field] = draftErrorMessage(fe.Field())
	}
	return errs
}

func newPath(kind Kind) string {
	return "/" + kind.Plural() + "/new"
}

func (h *Handler) loadDraft(w http.ResponseWriter, r *http.Request, kind Kind) (*Draft, bool) {
	d, err := h.drafts.Load(shared.SessionFromContext(r.Context()), kind)
	if err != nil {
		if d == nil {
			h.logger.Error("load draft", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return nil, false
		}
		h.logger.Warn("discarded unreadable draft", slog.String("kind", string(kind)), slog.Any("error", err))
	}
	return d, true
}

func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request, d *Draft) bool {
	if err := h.drafts.Save(shared.SessionFromContext(r.Context()), d); err != nil {
		h.logger.Error("save draft", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, d *Draft, form lineForm, editIndex int, errs formErrors, status int) {
	snap := h.service.FormData(r.Context(), d.Kind)
	data := map[string]any{
		"Kind":      d.Kind,
		"Draft":     d,
		"LineForm":  form,
		"EditIndex": editIndex,
		"Errors":    errs,
		"Refs":      snap,
		"Parties":   partyOptions(d.Kind, snap),
	}
	if lines, err := d.Lines(); err == nil {
		data["Lines"] = lines
		if totals, err := pricing.AggregateLines(lines, d.GlobalDiscountPercent); err == nil {
			data["Totals"] = totals
		}
	} else {
		errs["general"] = err.Error()
	}
	var warnings []string
	for src := range snap.Errors {
		warnings = append(warnings, "Données indisponibles : "+string(src))
	}
	sort.Strings(warnings)
	data["Warnings"] = warnings
	h.render(w, r, "pages/documents_form.html", d.Kind.NewTitle(), data, status)
}

// partyOption is a counterpart in the header select.
type partyOption struct {
	ID   int64
	Name string
}

func partyOptions(kind Kind, snap refdata.Snapshot) []partyOption {
	var out []partyOption
	if kind == KindVente {
		for _, c := range snap.Clients {
			out = append(out, partyOption{ID: c.ID, Name: c.DisplayName()})
		}
		return out
	}
	for _, f := range snap.Suppliers {
		out = append(out, partyOption{ID: f.ID, Name: f.DisplayName()})
	}
	return out
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: title, CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
