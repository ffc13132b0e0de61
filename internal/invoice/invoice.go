// Package invoice rebuilds a printable invoice from a stored achat or vente.
package invoice

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/soleilcom/gestion/internal/backend"
	"github.com/soleilcom/gestion/internal/documents"
	"github.com/soleilcom/gestion/internal/pricing"
	"github.com/soleilcom/gestion/internal/refdata"
)

var hundred = decimal.NewFromInt(100)

// Company is the seller identity printed on every invoice.
type Company struct {
	Name    string
	Address string
}

// Party is one side of the invoice.
type Party struct {
	Name    string
	Address string
	Email   string
	Contact string
}

// Line is an invoice row recomputed through the pricing engine.
type Line struct {
	Number int
	pricing.Line
}

// Invoice is the view model of /factures/{type}/{id}.
type Invoice struct {
	Kind       documents.Kind
	DocumentID int64
	Number     string
	Date       time.Time
	RawDate    string
	Company    Company
	Party      Party
	Lines      []Line
	Totals     pricing.DocumentTotals
	Stored     decimal.Decimal
	Warnings   []string
}

// Mismatch reports whether the recomputed total differs from the stored one
// once both are rounded for display.
func (inv Invoice) Mismatch() bool {
	return !pricing.Round2(inv.Totals.NetPayable).Equal(pricing.Round2(inv.Stored))
}

// storedLine is the common shape of achat and vente lines.
type storedLine struct {
	articleID      int64
	label          string
	characteristic string
	quantity       int
	unitPrice      decimal.Decimal
	discountAmount decimal.Decimal
	taxAmount      decimal.Decimal
	discountRate   *decimal.Decimal
	taxRate        *decimal.Decimal
}

// FromAchat builds the invoice of a purchase. The supplier is the issuing party.
func FromAchat(a backend.Achat, snap refdata.Snapshot, company Company, loc *time.Location) Invoice {
	inv := Invoice{Kind: documents.KindAchat, DocumentID: a.ID, RawDate: a.DateAchat, Company: company}
	inv.Date, _ = backend.ParseDate(a.DateAchat, loc)
	inv.Stored = a.MontantTotal

	supplier := a.Fournisseur
	if supplier == nil {
		if f, ok := snap.Supplier(a.FournisseurID); ok {
			supplier = &f
		}
	}
	if supplier != nil {
		inv.Party = Party{Name: supplier.DisplayName(), Address: supplier.Localisation, Email: supplier.Email, Contact: supplier.Contact}
	} else {
		inv.Party = Party{Name: "Fournisseur #" + strconv.FormatInt(a.FournisseurID, 10)}
	}

	lines := make([]storedLine, 0, len(a.ArticlesData))
	for _, l := range a.ArticlesData {
		lines = append(lines, storedLine{
			articleID:      l.ArticleID,
			label:          l.Designation,
			characteristic: l.Caracteristique,
			quantity:       int(l.Quantite),
			unitPrice:      l.Prix,
			discountAmount: l.RemiseArticle,
			taxAmount:      l.TvaArticle,
			discountRate:   l.RemisePercentage,
			taxRate:        l.TvaPercentage,
		})
	}
	inv.build(lines, a.GlobalDiscountPercent(), snap)
	return inv
}

// FromVente builds the invoice of a sale. The client is the recipient.
func FromVente(v backend.Vente, snap refdata.Snapshot, company Company, loc *time.Location) Invoice {
	inv := Invoice{Kind: documents.KindVente, DocumentID: v.ID, RawDate: v.DateVente, Company: company}
	inv.Date, _ = backend.ParseDate(v.DateVente, loc)
	inv.Stored = v.MontantTotal

	client := v.Client
	if client == nil {
		if c, ok := snap.Client(v.ClientID); ok {
			client = &c
		}
	}
	if client != nil {
		inv.Party = Party{Name: client.DisplayName(), Address: client.Adresse, Email: client.Email, Contact: client.Contact}
	} else {
		inv.Party = Party{Name: "Client #" + strconv.FormatInt(v.ClientID, 10)}
	}

	lines := make([]storedLine, 0, len(v.ArticleData))
	for _, l := range v.ArticleData {
		lines = append(lines, storedLine{
			articleID:      l.ArticleID,
			quantity:       int(l.Quantite),
			unitPrice:      l.PrixVente,
			discountAmount: l.RemiseArticle,
			taxAmount:      l.TvaArticle,
			discountRate:   l.RemisePercentage,
			taxRate:        l.TvaPercentage,
		})
	}
	inv.build(lines, v.GlobalDiscountPercent(), snap)
	return inv
}

func (inv *Invoice) build(stored []storedLine, globalPercent decimal.Decimal, snap refdata.Snapshot) {
	inv.Number = pricing.InvoiceNumberOrPlaceholder(strconv.FormatInt(inv.DocumentID, 10))

	computed := make([]pricing.Line, 0, len(stored))
	for i, s := range stored {
		item := s.item(snap)
		line, err := pricing.ComputeLine(item)
		if err != nil {
			inv.Warnings = append(inv.Warnings, fmt.Sprintf("Ligne %d ignorée : %v", i+1, err))
			continue
		}
		if item.Ref.Label == "" {
			line.Item.Ref.Label = "Article #" + strconv.FormatInt(s.articleID, 10)
			inv.Warnings = append(inv.Warnings, fmt.Sprintf("Article %d introuvable", s.articleID))
		}
		computed = append(computed, line)
		inv.Lines = append(inv.Lines, Line{Number: len(inv.Lines) + 1, Line: line})
	}

	totals, err := pricing.AggregateLines(computed, globalPercent)
	if err != nil {
		inv.Warnings = append(inv.Warnings, "Remise globale invalide, ignorée")
		totals, _ = pricing.AggregateLines(computed, decimal.Zero)
	}
	inv.Totals = totals
}

func (s storedLine) item(snap refdata.Snapshot) pricing.LineItem {
	ref := pricing.LineRef{ArticleID: s.articleID, Label: s.label, Characteristic: s.characteristic}
	if article, ok := snap.Article(s.articleID); ok {
		if ref.Label == "" {
			ref.Label = article.Designation
		}
		if ref.Characteristic == "" {
			ref.Characteristic = article.Caracteristique
		}
		ref.TypeName = snap.TypeName(article.TypeArticleID)
		ref.CategoryID = article.CategorieID
	}

	gross := s.unitPrice.Mul(decimal.NewFromInt(int64(s.quantity)))
	return pricing.LineItem{
		Ref:          ref,
		UnitPrice:    s.unitPrice,
		Quantity:     s.quantity,
		DiscountRate: rateOf(s.discountRate, s.discountAmount, gross),
		TaxRate:      rateOf(s.taxRate, s.taxAmount, gross),
	}
}

// rateOf prefers the stored percentage. Older documents only carry amounts,
// so the rate is derived from the gross and rounded to 2 decimals.
func rateOf(stored *decimal.Decimal, amount, gross decimal.Decimal) decimal.Decimal {
	if stored != nil {
		return *stored
	}
	if gross.IsZero() || amount.IsZero() {
		return decimal.Zero
	}
	rate := amount.Mul(hundred).Div(gross).Round(2)
	if rate.GreaterThan(hundred) {
		return hundred
	}
	if rate.IsNegative() {
		return decimal.Zero
	}
	return rate
}
