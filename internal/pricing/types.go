// Package pricing computes line and document totals for purchase and sale
// documents. Everything here is pure: no I/O, no logging, no rounding.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineRef identifies the article a line refers to. The engine never reads it.
type LineRef struct {
	ArticleID      int64  `json:"articleId"`
	Label          string `json:"designation"`
	Characteristic string `json:"caracteristique"`
	TypeName       string `json:"type,omitempty"`
	CategoryID     int64  `json:"categorieId,omitempty"`
}

// LineItem is the raw input of a document line.
type LineItem struct {
	Ref          LineRef         `json:"ref"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Quantity     int             `json:"quantity"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	TaxRate      decimal.Decimal `json:"taxRate"`
}

// LineComputation holds the derived amounts of one line. Values are unrounded.
type LineComputation struct {
	GrossAmount    decimal.Decimal `json:"grossAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	NetAmount      decimal.Decimal `json:"netAmount"`
}

// Line pairs an input item with its computation.
type Line struct {
	Item LineItem
	LineComputation
}

// DocumentTotals is derived from the full line set on every change.
type DocumentTotals struct {
	TotalGross            decimal.Decimal `json:"totalGross"`
	TotalDiscount         decimal.Decimal `json:"totalDiscount"`
	TotalTax              decimal.Decimal `json:"totalTax"`
	GlobalDiscountPercent decimal.Decimal `json:"globalDiscountPercent"`
	GlobalDiscountAmount  decimal.Decimal `json:"globalDiscountAmount"`
	NetPayable            decimal.Decimal `json:"netPayable"`
}

// NetBeforeGlobalDiscount is the gross minus line discounts.
func (t DocumentTotals) NetBeforeGlobalDiscount() decimal.Decimal {
	return t.TotalGross.Sub(t.TotalDiscount)
}

// Round2 rounds half away from zero to two decimals. Only call it at display
// or serialization boundaries.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Shift(-2)
}

func inPercentRange(rate decimal.Decimal) bool {
	return !rate.IsNegative() && !rate.GreaterThan(hundred)
}
