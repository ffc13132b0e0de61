package documents

import (
	"fmt"

	"github.com/soleilcom/gestion/internal/backend"
	"github.com/soleilcom/gestion/internal/pricing"
)

// BuildAchatPayload turns a draft into the POST /achats body. Amounts are
// rounded to two decimals here and nowhere earlier.
func BuildAchatPayload(d *Draft) (backend.NewAchat, error) {
	if d.Kind != KindAchat {
		return backend.NewAchat{}, fmt.Errorf("documents: %s draft is not an achat", d.Kind)
	}
	lines, totals, err := computed(d)
	if err != nil {
		return backend.NewAchat{}, err
	}
	articles := make([]backend.AchatArticle, 0, len(lines))
	for _, l := range lines {
		articles = append(articles, backend.AchatArticle{
			ArticleID:        l.Item.Ref.ArticleID,
			Designation:      l.Item.Ref.Label,
			Caracteristique:  l.Item.Ref.Characteristic,
			CategorieID:      l.Item.Ref.CategoryID,
			Type:             l.Item.Ref.TypeName,
			Quantite:         l.Item.Quantity,
			Prix:             backend.Number(l.Item.UnitPrice),
			MontantHT:        backend.Number(pricing.Round2(l.GrossAmount)),
			RemiseArticle:    backend.Number(pricing.Round2(l.DiscountAmount)),
			TvaArticle:       backend.Number(pricing.Round2(l.TaxAmount)),
			MontantTTC:       backend.Number(pricing.Round2(l.NetAmount)),
			RemisePercentage: backend.Number(l.Item.DiscountRate),
			TvaPercentage:    backend.Number(l.Item.TaxRate),
		})
	}
	return backend.NewAchat{
		FournisseurID:         d.PartyID,
		DateAchat:             d.Date,
		ArticlesData:          articles,
		MontantHT:             backend.Number(pricing.Round2(totals.TotalGross)),
		MontantTVA:            backend.Number(pricing.Round2(totals.TotalTax)),
		RemiseArticles:        backend.Number(pricing.Round2(totals.TotalDiscount)),
		RemiseGlobale:         backend.Number(pricing.Round2(totals.GlobalDiscountAmount)),
		RemiseGlobalePourcent: backend.Number(totals.GlobalDiscountPercent),
		MontantTotal:          backend.Number(pricing.Round2(totals.NetPayable)),
	}, nil
}

// BuildVentePayload turns a draft into the POST /ventes body.
func BuildVentePayload(d *Draft) (backend.NewVente, error) {
	if d.Kind != KindVente {
		return backend.NewVente{}, fmt.Errorf("documents: %s draft is not a vente", d.Kind)
	}
	lines, totals, err := computed(d)
	if err != nil {
		return backend.NewVente{}, err
	}
	articles := make([]backend.VenteArticle, 0, len(lines))
	for _, l := range lines {
		articles = append(articles, backend.VenteArticle{
			ArticleID:        l.Item.Ref.ArticleID,
			Quantite:         l.Item.Quantity,
			PrixVente:        backend.Number(l.Item.UnitPrice),
			RemiseArticle:    backend.Number(pricing.Round2(l.DiscountAmount)),
			TvaArticle:       backend.Number(pricing.Round2(l.TaxAmount)),
			RemisePercentage: backend.Number(l.Item.DiscountRate),
			TvaPercentage:    backend.Number(l.Item.TaxRate),
		})
	}
	return backend.NewVente{
		ClientID:            d.PartyID,
		DateVente:           d.Date,
		ArticleData:         articles,
		TauxRemise:          backend.Number(pricing.Round2(totals.TotalDiscount)),
		MontantTVA:          backend.Number(pricing.Round2(totals.TotalTax)),
		RemiseTotalPourcent: backend.Number(totals.GlobalDiscountPercent),
		MontantTotal:        backend.Number(pricing.Round2(totals.NetPayable)),
	}, nil
}

func computed(d *Draft) ([]pricing.Line, pricing.DocumentTotals, error) {
	lines, err := d.Lines()
	if err != nil {
		return nil, pricing.DocumentTotals{}, err
	}
	totals, err := pricing.AggregateLines(lines, d.GlobalDiscountPercent)
	if err != nil {
		return nil, pricing.DocumentTotals{}, err
	}
	return lines, totals, nil
}
