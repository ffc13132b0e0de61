package finance

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
)

// WriteReportCSV serialises the report summary, recent transactions and
// daily series as consecutive CSV tables.
func WriteReportCSV(w io.Writer, r Report) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	records := [][]string{
		{"Indicateur", "Valeur"},
		{"Période", string(r.Period)},
		{"Généré le", r.GeneratedAt.Format("2006-01-02 15:04")},
		{"Total achats", formatAmount(r.TotalPurchases)},
		{"Total ventes", formatAmount(r.TotalSales)},
		{"Nombre d'achats", strconv.Itoa(r.PurchaseCount)},
		{"Nombre de ventes", strconv.Itoa(r.SaleCount)},
		{"Bénéfice", formatAmount(r.Profit)},
		{"Marge (%)", formatAmount(r.MarginPercent)},
		{"Quantité en stock", strconv.Itoa(r.StockQuantity)},
		{},
		{"Date", "Type", "Document", "Description", "Montant"},
	}
	for _, t := range r.Recent {
		date := t.RawDate
		if !t.Date.IsZero() {
			date = t.Date.Format("2006-01-02")
		}
		records = append(records, []string{date, t.Kind, strconv.FormatInt(t.DocumentID, 10), t.Description(), formatAmount(t.Amount)})
	}
	records = append(records, []string{}, []string{"Jour", "Achats", "Ventes"})
	for _, p := range r.Daily {
		records = append(records, []string{p.Day.Format("2006-01-02"), formatAmount(p.Purchases), formatAmount(p.Sales)})
	}

	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
