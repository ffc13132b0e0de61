package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soleilcom/gestion/internal/backend"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var reportNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

func sampleInputs() Inputs {
	return Inputs{
		Achats: []backend.Achat{
			{ID: 1, DateAchat: "2024-05-02", MontantTotal: dec("236"), ArticlesData: []backend.AchatLine{{ArticleID: 7, Quantite: 2, Prix: dec("100")}}},
			{ID: 2, DateAchat: "2024-04-20", MontantTotal: dec("150"), ArticlesData: []backend.AchatLine{{ArticleID: 7, Quantite: 1, Prix: dec("80")}, {ArticleID: 8, Quantite: 1, Prix: dec("50")}}},
			{ID: 3, DateAchat: "2024-05-15T08:30:00Z", MontantTotal: dec("60")},
		},
		Ventes: []backend.Vente{
			{ID: 1, DateVente: "2024-05-15", MontantTotal: dec("320"), ArticleData: []backend.VenteLine{{ArticleID: 7, Quantite: 2, PrixVente: dec("150")}, {ArticleID: 9, Quantite: 1, PrixVente: dec("10")}}},
			{ID: 2, DateVente: "2023-12-01", MontantTotal: dec("70"), ArticleData: []backend.VenteLine{{ArticleID: 8, Quantite: 1, PrixVente: dec("70")}}},
			{ID: 3, DateVente: "", MontantTotal: dec("5")},
		},
		Articles: []backend.Article{{ID: 7, Quantite: 3}, {ID: 8, Quantite: 4}},
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)

	p, err = ParsePeriod(" YEAR ")
	require.NoError(t, err)
	assert.Equal(t, PeriodYear, p)

	_, err = ParsePeriod("week")
	assert.Error(t, err)
}

func TestBuildReportMonth(t *testing.T) {
	r := BuildReport(sampleInputs(), PeriodMonth, reportNow)

	assert.Equal(t, 2, r.PurchaseCount)
	assert.True(t, r.TotalPurchases.Equal(dec("296")))
	assert.Equal(t, 1, r.SaleCount)
	assert.True(t, r.TotalSales.Equal(dec("320")))
	assert.True(t, r.Profit.Equal(dec("100")), r.Profit.String())
	assert.True(t, r.MarginPercent.Equal(dec("31.25")), r.MarginPercent.String())
	assert.True(t, r.Balance().Equal(dec("24")))
	assert.Equal(t, 7, r.StockQuantity)

	require.Len(t, r.Recent, 3)
	assert.Equal(t, "achat", r.Recent[0].Kind)
	assert.Equal(t, int64(3), r.Recent[0].DocumentID)
	assert.Equal(t, "vente", r.Recent[1].Kind)
	assert.Equal(t, "Vente de 2 articles", r.Recent[1].Description())
	assert.Equal(t, int64(1), r.Recent[2].DocumentID)

	require.Len(t, r.Daily, 2)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), r.Daily[0].Day)
	assert.True(t, r.Daily[0].Purchases.Equal(dec("236")))
	assert.True(t, r.Daily[1].Purchases.Equal(dec("60")))
	assert.True(t, r.Daily[1].Sales.Equal(dec("320")))
}

func TestBuildReportAllUsesFirstPurchasePrice(t *testing.T) {
	r := BuildReport(sampleInputs(), PeriodAll, reportNow)

	assert.Equal(t, 3, r.PurchaseCount)
	assert.Equal(t, 3, r.SaleCount)
	assert.True(t, r.TotalSales.Equal(dec("395")))
	// (150-100)*2 for article 7, (70-50)*1 for article 8, article 9 was never bought.
	assert.True(t, r.Profit.Equal(dec("120")), r.Profit.String())

	require.Len(t, r.Recent, RecentLimit)
	assert.Equal(t, int64(2), r.Recent[4].DocumentID)
	assert.Equal(t, "vente", r.Recent[4].Kind)
	require.Len(t, r.Daily, 4)
	assert.Equal(t, 2023, r.Daily[0].Day.Year())
}

func TestBuildReportDayAndYear(t *testing.T) {
	day := BuildReport(sampleInputs(), PeriodDay, reportNow)
	assert.True(t, day.TotalPurchases.Equal(dec("60")))
	assert.True(t, day.TotalSales.Equal(dec("320")))

	year := BuildReport(sampleInputs(), PeriodYear, reportNow)
	assert.Equal(t, 3, year.PurchaseCount)
	assert.Equal(t, 1, year.SaleCount)
}

func TestBuildReportWithoutSalesHasZeroMargin(t *testing.T) {
	r := BuildReport(Inputs{Achats: sampleInputs().Achats}, PeriodAll, reportNow)
	assert.True(t, r.MarginPercent.IsZero())
	assert.True(t, r.Profit.IsZero())
	assert.Len(t, r.Recent, 3)
}
