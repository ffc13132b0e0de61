// Package finance summarises purchases and sales for the finance dashboard.
package finance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/soleilcom/gestion/internal/backend"
)

// Period selects the documents a report covers.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// Periods lists the dashboard tabs in display order.
var Periods = []Period{PeriodDay, PeriodMonth, PeriodYear, PeriodAll}

// RecentLimit caps the recent transactions list.
const RecentLimit = 5

var hundred = decimal.NewFromInt(100)

// ParsePeriod defaults to the current month when raw is blank.
func ParsePeriod(raw string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PeriodMonth, nil
	case PeriodDay, PeriodMonth, PeriodYear, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("finance: unknown period %q", raw)
	}
}

// Label is the French tab title.
func (p Period) Label() string {
	switch p {
	case PeriodDay:
		return "Jour"
	case PeriodMonth:
		return "Mois"
	case PeriodYear:
		return "Année"
	default:
		return "Tout"
	}
}

// Contains reports whether t falls in the period around now. Undated
// documents only belong to PeriodAll.
func (p Period) Contains(t, now time.Time) bool {
	if p == PeriodAll {
		return true
	}
	if t.IsZero() {
		return false
	}
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	switch p {
	case PeriodDay:
		return ty == ny && tm == nm && td == nd
	case PeriodMonth:
		return ty == ny && tm == nm
	case PeriodYear:
		return ty == ny
	default:
		return false
	}
}

// Transaction is one achat or vente in the recent list.
type Transaction struct {
	Kind       string          `json:"kind"`
	DocumentID int64           `json:"documentId"`
	Date       time.Time       `json:"date"`
	RawDate    string          `json:"rawDate"`
	Articles   int             `json:"articles"`
	Amount     decimal.Decimal `json:"amount"`
}

// Description is the French summary line.
func (t Transaction) Description() string {
	if t.Kind == "vente" {
		return fmt.Sprintf("Vente de %d articles", t.Articles)
	}
	return fmt.Sprintf("Achat de %d articles", t.Articles)
}

// DailyPoint sums the documents of one calendar day.
type DailyPoint struct {
	Day       time.Time       `json:"day"`
	Purchases decimal.Decimal `json:"purchases"`
	Sales     decimal.Decimal `json:"sales"`
}

// Report is the finance dashboard content.
type Report struct {
	Period         Period          `json:"period"`
	GeneratedAt    time.Time       `json:"generatedAt"`
	TotalPurchases decimal.Decimal `json:"totalPurchases"`
	TotalSales     decimal.Decimal `json:"totalSales"`
	PurchaseCount  int             `json:"purchaseCount"`
	SaleCount      int             `json:"saleCount"`
	Profit         decimal.Decimal `json:"profit"`
	MarginPercent  decimal.Decimal `json:"marginPercent"`
	StockQuantity  int             `json:"stockQuantity"`
	Recent         []Transaction   `json:"recent"`
	Daily          []DailyPoint    `json:"daily"`
}

// Balance is sales minus purchases.
func (r Report) Balance() decimal.Decimal {
	return r.TotalSales.Sub(r.TotalPurchases)
}

// Inputs are the raw backend lists a report is built from.
type Inputs struct {
	Achats   []backend.Achat
	Ventes   []backend.Vente
	Articles []backend.Article
}

// BuildReport computes the report of period as seen at now. Purchase prices
// used for profit come from all purchases, not only those of the period.
func BuildReport(in Inputs, period Period, now time.Time) Report {
	loc := now.Location()
	r := Report{
		Period:         period,
		GeneratedAt:    now,
		TotalPurchases: decimal.Zero,
		TotalSales:     decimal.Zero,
		Profit:         decimal.Zero,
		MarginPercent:  decimal.Zero,
	}
	daily := make(map[time.Time]*DailyPoint)
	day := func(t time.Time) *DailyPoint {
		y, m, d := t.In(loc).Date()
		key := time.Date(y, m, d, 0, 0, 0, 0, loc)
		p, ok := daily[key]
		if !ok {
			p = &DailyPoint{Day: key, Purchases: decimal.Zero, Sales: decimal.Zero}
			daily[key] = p
		}
		return p
	}

	var txs []Transaction
	for _, a := range in.Achats {
		date, _ := backend.ParseDate(a.DateAchat, loc)
		if !period.Contains(date, now) {
			continue
		}
		r.PurchaseCount++
		r.TotalPurchases = r.TotalPurchases.Add(a.MontantTotal)
		if !date.IsZero() {
			p := day(date)
			p.Purchases = p.Purchases.Add(a.MontantTotal)
		}
		txs = append(txs, Transaction{Kind: "achat", DocumentID: a.ID, Date: date, RawDate: a.DateAchat, Articles: len(a.ArticlesData), Amount: a.MontantTotal})
	}

	prices := firstPurchasePrices(in.Achats)
	for _, v := range in.Ventes {
		date, _ := backend.ParseDate(v.DateVente, loc)
		if !period.Contains(date, now) {
			continue
		}
		r.SaleCount++
		r.TotalSales = r.TotalSales.Add(v.MontantTotal)
		if !date.IsZero() {
			p := day(date)
			p.Sales = p.Sales.Add(v.MontantTotal)
		}
		for _, l := range v.ArticleData {
			cost, ok := prices[l.ArticleID]
			if !ok {
				continue
			}
			r.Profit = r.Profit.Add(l.PrixVente.Sub(cost).Mul(decimal.NewFromInt(int64(l.Quantite))))
		}
		txs = append(txs, Transaction{Kind: "vente", DocumentID: v.ID, Date: date, RawDate: v.DateVente, Articles: len(v.ArticleData), Amount: v.MontantTotal})
	}

	if !r.TotalSales.IsZero() {
		r.MarginPercent = r.Profit.Mul(hundred).Div(r.TotalSales)
	}
	for _, a := range in.Articles {
		r.StockQuantity += int(a.Quantite)
	}

	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if a.Date.Equal(b.Date) {
			return a.DocumentID > b.DocumentID
		}
		if a.Date.IsZero() || b.Date.IsZero() {
			return b.Date.IsZero()
		}
		return a.Date.After(b.Date)
	})
	if len(txs) > RecentLimit {
		txs = txs[:RecentLimit]
	}
	r.Recent = txs

	r.Daily = make([]DailyPoint, 0, len(daily))
	for _, p := range daily {
		r.Daily = append(r.Daily, *p)
	}
	sort.Slice(r.Daily, func(i, j int) bool { return r.Daily[i].Day.Before(r.Daily[j].Day) })
	return r
}

// firstPurchasePrices maps each article to the unit price of the first
// purchase, in backend order, that contains it.
func firstPurchasePrices(achats []backend.Achat) map[int64]decimal.Decimal {
	prices := make(map[int64]decimal.Decimal)
	for _, a := range achats {
		for _, l := range a.ArticlesData {
			if _, seen := prices[l.ArticleID]; !seen {
				prices[l.ArticleID] = l.Prix
			}
		}
	}
	return prices
}
