package documents

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/soleilcom/gestion/internal/pricing"
	"github.com/soleilcom/gestion/internal/refdata"
)

type formErrors map[string]string

// lineForm mirrors the line entry inputs so a rejected line can be shown
// again as typed.
type lineForm struct {
	ArticleID    string
	Quantity     string
	UnitPrice    string
	DiscountRate string
	TaxRate      string
}

func defaultLineForm() lineForm {
	return lineForm{Quantity: "1", DiscountRate: "0", TaxRate: "18"}
}

func lineFormFromItem(item pricing.LineItem) lineForm {
	return lineForm{
		ArticleID:    strconv.FormatInt(item.Ref.ArticleID, 10),
		Quantity:     strconv.Itoa(item.Quantity),
		UnitPrice:    item.UnitPrice.String(),
		DiscountRate: item.DiscountRate.String(),
		TaxRate:      item.TaxRate.String(),
	}
}

func readLineForm(r *http.Request) lineForm {
	return lineForm{
		ArticleID:    strings.TrimSpace(r.PostFormValue("article_id")),
		Quantity:     strings.TrimSpace(r.PostFormValue("quantity")),
		UnitPrice:    strings.TrimSpace(r.PostFormValue("unit_price")),
		DiscountRate: strings.TrimSpace(r.PostFormValue("discount_rate")),
		TaxRate:      strings.TrimSpace(r.PostFormValue("tax_rate")),
	}
}

var engineFieldNames = map[string]string{
	pricing.FieldUnitPrice:    "unit_price",
	pricing.FieldQuantity:     "quantity",
	pricing.FieldDiscountRate: "discount_rate",
	pricing.FieldTaxRate:      "tax_rate",
}

// toItem parses the form into a line item. Reference identity comes from the
// snapshot so the draft keeps the label the user picked.
func (f lineForm) toItem(snap refdata.Snapshot) (pricing.LineItem, formErrors) {
	errs := formErrors{}
	var item pricing.LineItem

	articleID, err := strconv.ParseInt(f.ArticleID, 10, 64)
	switch {
	case err != nil || articleID <= 0:
		errs["article_id"] = "Choisissez un article"
	case snap.Err(refdata.SourceArticles) != nil:
		errs["article_id"] = "Liste des articles indisponible"
	default:
		article, ok := snap.Article(articleID)
		if !ok {
			errs["article_id"] = "Article inconnu"
			break
		}
		item.Ref = pricing.LineRef{
			ArticleID:      article.ID,
			Label:          article.Designation,
			Characteristic: article.Caracteristique,
			TypeName:       snap.TypeName(article.TypeArticleID),
			CategoryID:     article.CategorieID,
		}
	}

	qty, err := strconv.Atoi(f.Quantity)
	if err != nil {
		errs["quantity"] = "Quantité invalide"
	}
	item.Quantity = qty

	if item.UnitPrice, err = parseDecimal(f.UnitPrice, decimal.Zero); err != nil {
		errs["unit_price"] = "Prix invalide"
	}
	if item.DiscountRate, err = parseDecimal(f.DiscountRate, decimal.Zero); err != nil {
		errs["discount_rate"] = "Remise invalide"
	}
	if item.TaxRate, err = parseDecimal(f.TaxRate, decimal.Zero); err != nil {
		errs["tax_rate"] = "TVA invalide"
	}
	if len(errs) > 0 {
		return pricing.LineItem{}, errs
	}

	if _, err := pricing.ComputeLine(item); err != nil {
		return pricing.LineItem{}, engineErrors(err)
	}
	return item, nil
}

func engineErrors(err error) formErrors {
	var lineErr *pricing.LineInputError
	if errors.As(err, &lineErr) {
		field := engineFieldNames[lineErr.Field]
		if field == "" {
			field = "general"
		}
		return formErrors{field: lineErrorMessage(lineErr.Field)}
	}
	if errors.Is(err, pricing.ErrInvalidDiscount) {
		return formErrors{"global_discount": "La remise globale doit être comprise entre 0 et 100"}
	}
	return formErrors{"general": err.Error()}
}

func lineErrorMessage(field string) string {
	switch field {
	case pricing.FieldUnitPrice:
		return "Le prix ne peut pas être négatif"
	case pricing.FieldQuantity:
		return "La quantité doit être au moins 1"
	case pricing.FieldDiscountRate:
		return "La remise doit être comprise entre 0 et 100"
	case pricing.FieldTaxRate:
		return "La TVA doit être comprise entre 0 et 100"
	default:
		return "Valeur invalide"
	}
}

// parseDecimal reads user input, accepting a decimal comma. Blank input
// yields def.
func parseDecimal(raw string, def decimal.Decimal) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if raw == "" {
		return def, nil
	}
	return decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
}

func parseIndex(raw string) (int, bool) {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// draftFieldNames maps validator field names onto form inputs.
var draftFieldNames = map[string]string{
	"partyId": "party_id",
	"date":    "date",
	"items":   "general",
}

func draftErrorMessage(field string) string {
	switch field {
	case "partyId":
		return "Sélectionnez la contrepartie"
	case "date":
		return "Indiquez une date valide"
	case "items":
		return "Ajoutez au moins un article"
	default:
		return "Champ invalide"
	}
}
