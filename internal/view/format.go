package view

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCurrencySuffix is appended to rendered amounts.
const DefaultCurrencySuffix = "FCFA"

// MoneyFormatter renders amounts with locale grouping and two decimals.
type MoneyFormatter struct {
	printer *message.Printer
	suffix  string
}

// NewMoneyFormatter builds a formatter for the BCP 47 locale tag. Unknown
// tags fall back to French.
func NewMoneyFormatter(locale, suffix string) *MoneyFormatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.French
	}
	return &MoneyFormatter{printer: message.NewPrinter(tag), suffix: suffix}
}

// Amount renders d rounded half-up to two decimals, without suffix.
func (f *MoneyFormatter) Amount(d decimal.Decimal) string {
	rounded := d.Round(2).InexactFloat64()
	return f.printer.Sprint(number.Decimal(rounded, number.Scale(2)))
}

// Money renders d with the currency suffix.
func (f *MoneyFormatter) Money(d decimal.Decimal) string {
	if f.suffix == "" {
		return f.Amount(d)
	}
	return f.Amount(d) + " " + f.suffix
}

// Percent renders a rate such as 18 or 7.5 followed by a percent sign.
func (f *MoneyFormatter) Percent(d decimal.Decimal) string {
	return strings.TrimSpace(d.Round(2).String()) + " %"
}

// Count renders an integer with locale grouping.
func (f *MoneyFormatter) Count(n int) string {
	return f.printer.Sprint(number.Decimal(n))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}
