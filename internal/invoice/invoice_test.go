package invoice

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soleilcom/gestion/internal/backend"
	"github.com/soleilcom/gestion/internal/documents"
	"github.com/soleilcom/gestion/internal/pricing"
	"github.com/soleilcom/gestion/internal/refdata"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

var testSnapshot = refdata.Snapshot{
	Articles: []backend.Article{
		{ID: 7, Designation: "Clavier", Caracteristique: "AZERTY", TypeArticleID: 1},
		{ID: 8, Designation: "Souris", TypeArticleID: 1},
	},
	Types:     []backend.TypeArticle{{ID: 1, Nom: "Informatique"}},
	Suppliers: []backend.Fournisseur{{ID: 4, Nom: "Kouassi", Prenom: "Jean", Localisation: "Abidjan"}},
	Clients:   []backend.Client{{ID: 5, Nom: "Yao", Prenom: "Awa", Adresse: "Bouaké"}},
}

var company = Company{Name: "Soleil SARL", Address: "Plateau, Abidjan"}

func TestFromAchatUsesStoredPercentages(t *testing.T) {
	a := backend.Achat{
		ID:            12,
		FournisseurID: 4,
		DateAchat:     "2024-05-02",
		ArticlesData: []backend.AchatLine{{
			ArticleID:        7,
			Designation:      "Clavier sans fil",
			Quantite:         2,
			Prix:             dec("100"),
			RemisePercentage: decPtr("10"),
			TvaPercentage:    decPtr("18"),
		}},
		RemiseGlobalePourcent: dec("10"),
		MontantTotal:          dec("198"),
	}

	inv := FromAchat(a, testSnapshot, company, time.UTC)
	assert.Equal(t, "FACT-012", inv.Number)
	assert.Equal(t, "Jean Kouassi", inv.Party.Name)
	assert.Equal(t, "Abidjan", inv.Party.Address)
	assert.Equal(t, company, inv.Company)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), inv.Date)

	require.Len(t, inv.Lines, 1)
	line := inv.Lines[0]
	assert.Equal(t, 1, line.Number)
	assert.Equal(t, "Clavier sans fil", line.Item.Ref.Label)
	assert.Equal(t, "Informatique", line.Item.Ref.TypeName)
	assert.True(t, line.NetAmount.Equal(dec("216")))

	assert.True(t, inv.Totals.GlobalDiscountAmount.Equal(dec("18")))
	assert.True(t, inv.Totals.NetPayable.Equal(dec("198")))
	assert.False(t, inv.Mismatch())
	assert.Empty(t, inv.Warnings)
}

func TestFromVenteDerivesRatesFromAmounts(t *testing.T) {
	v := backend.Vente{
		ID:       3,
		ClientID: 5,
		ArticleData: []backend.VenteLine{{
			ArticleID:     8,
			Quantite:      4,
			PrixVente:     dec("50"),
			RemiseArticle: dec("20"),
			TvaArticle:    dec("36"),
		}},
		TauxRemise:   dec("20"),
		MontantTotal: dec("216"),
	}

	inv := FromVente(v, testSnapshot, company, time.UTC)
	assert.Equal(t, "FACT-003", inv.Number)
	assert.Equal(t, "Awa Yao", inv.Party.Name)
	require.Len(t, inv.Lines, 1)
	item := inv.Lines[0].Item
	assert.Equal(t, "Souris", item.Ref.Label)
	assert.True(t, item.DiscountRate.Equal(dec("10")))
	assert.True(t, item.TaxRate.Equal(dec("18")))
	assert.True(t, inv.Totals.NetPayable.Equal(dec("216")))
	assert.True(t, inv.Totals.GlobalDiscountAmount.IsZero())
	assert.False(t, inv.Mismatch())
}

func submittedDraft(t *testing.T, kind documents.Kind, partyID int64, globalPercent string, items ...pricing.LineItem) *documents.Draft {
	t.Helper()
	d := documents.NewDraft(kind)
	require.NoError(t, d.SetHeader(partyID, "2024-05-02"))
	for _, item := range items {
		require.NoError(t, d.AddLine(item))
	}
	require.NoError(t, d.SetGlobalDiscount(dec(globalPercent)))
	return d
}

// stored mimics the backend persisting a request body and serving it back.
func stored(t *testing.T, payload, dest any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}

func TestSubmittedDocumentsRenderWithoutMismatch(t *testing.T) {
	keyboard := pricing.LineItem{Ref: pricing.LineRef{ArticleID: 7}, UnitPrice: dec("100"), Quantity: 2, DiscountRate: dec("10"), TaxRate: dec("18")}
	mouse := pricing.LineItem{Ref: pricing.LineRef{ArticleID: 8}, UnitPrice: dec("1500"), Quantity: 3, DiscountRate: dec("5"), TaxRate: dec("18")}

	cases := []struct {
		name   string
		global string
		items  []pricing.LineItem
	}{
		{"line discount only", "0", []pricing.LineItem{keyboard}},
		{"discount amount above one hundred", "0", []pricing.LineItem{keyboard, mouse}},
		{"with global discount", "10", []pricing.LineItem{keyboard, mouse}},
	}
	for _, tc := range cases {
		t.Run("achat "+tc.name, func(t *testing.T) {
			d := submittedDraft(t, documents.KindAchat, 4, tc.global, tc.items...)
			payload, err := documents.BuildAchatPayload(d)
			require.NoError(t, err)

			var a backend.Achat
			stored(t, payload, &a)
			a.ID = 21

			inv := FromAchat(a, testSnapshot, company, time.UTC)
			assert.False(t, inv.Mismatch(), "computed %s stored %s", inv.Totals.NetPayable, inv.Stored)
			assert.True(t, inv.Totals.GlobalDiscountPercent.Equal(dec(tc.global)))
			assert.Empty(t, inv.Warnings)
		})
		t.Run("vente "+tc.name, func(t *testing.T) {
			d := submittedDraft(t, documents.KindVente, 5, tc.global, tc.items...)
			payload, err := documents.BuildVentePayload(d)
			require.NoError(t, err)

			var v backend.Vente
			stored(t, payload, &v)
			v.ID = 22

			inv := FromVente(v, testSnapshot, company, time.UTC)
			assert.False(t, inv.Mismatch(), "computed %s stored %s", inv.Totals.NetPayable, inv.Stored)
			assert.True(t, inv.Totals.GlobalDiscountPercent.Equal(dec(tc.global)))
			assert.Empty(t, inv.Warnings)
		})
	}
}

func TestUnknownArticleAndPartyAreLabelledById(t *testing.T) {
	v := backend.Vente{
		ID:       9,
		ClientID: 77,
		ArticleData: []backend.VenteLine{{
			ArticleID: 99,
			Quantite:  1,
			PrixVente: dec("10"),
		}},
	}

	inv := FromVente(v, refdata.Snapshot{}, company, time.UTC)
	assert.Equal(t, "Client #77", inv.Party.Name)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "Article #99", inv.Lines[0].Item.Ref.Label)
	assert.Contains(t, inv.Warnings, "Article 99 introuvable")
	assert.True(t, inv.Mismatch())
}

func TestInvalidLinesAreSkipped(t *testing.T) {
	a := backend.Achat{
		ID: 0,
		ArticlesData: []backend.AchatLine{
			{ArticleID: 7, Quantite: 0, Prix: dec("100")},
			{ArticleID: 8, Quantite: 1, Prix: dec("100")},
		},
	}

	inv := FromAchat(a, testSnapshot, company, time.UTC)
	assert.Equal(t, "FACT-???", inv.Number)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, 1, inv.Lines[0].Number)
	assert.Equal(t, "Souris", inv.Lines[0].Item.Ref.Label)
	require.Len(t, inv.Warnings, 1)
	assert.Contains(t, inv.Warnings[0], "Ligne 1")
}

func TestRateOf(t *testing.T) {
	assert.True(t, rateOf(decPtr("5.5"), dec("999"), dec("100")).Equal(dec("5.5")))
	assert.True(t, rateOf(nil, dec("1"), dec("3")).Equal(dec("33.33")))
	assert.True(t, rateOf(nil, dec("10"), decimal.Zero).IsZero())
	assert.True(t, rateOf(nil, dec("300"), dec("100")).Equal(dec("100")))
}
