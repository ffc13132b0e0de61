package view

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/soleilcom/gestion/internal/shared"
	"github.com/soleilcom/gestion/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	money     *MoneyFormatter
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

// Options tunes number rendering.
type Options struct {
	Locale         string
	CurrencySuffix string
}

// NewEngine parses templates at build-time. At most one Options value is
// read.
func NewEngine(opts ...Options) (*Engine, error) {
	o := Options{Locale: "fr", CurrencySuffix: DefaultCurrencySuffix}
	if len(opts) > 0 {
		if opts[0].Locale != "" {
			o.Locale = opts[0].Locale
		}
		if opts[0].CurrencySuffix != "" {
			o.CurrencySuffix = opts[0].CurrencySuffix
		}
	}
	money := NewMoneyFormatter(o.Locale, o.CurrencySuffix)

	funcMap := template.FuncMap{
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"money":          money.Money,
		"amount":         money.Amount,
		"percent":        money.Percent,
		"count":          money.Count,
		"add":            func(a, b int) int { return a + b },
		"now":            time.Now,
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl, money: money}, nil
}

// Money exposes the formatter used by the templates.
func (e *Engine) Money() *MoneyFormatter {
	return e.money
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
