package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Count is an integer quantity that tolerates numeric strings on the wire.
type Count int

// UnmarshalJSON accepts 3, "3", "" and null.
func (c *Count) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*c = 0
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		*c = Count(n)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("backend: invalid quantity %q", raw)
	}
	*c = Count(int(f))
	return nil
}

// TypeArticle is an article type such as "Informatique".
type TypeArticle struct {
	ID  int64  `json:"id"`
	Nom string `json:"nom"`
}

// Categorie groups articles on the home page.
type Categorie struct {
	ID  int64  `json:"id"`
	Nom string `json:"nom"`
}

// Article is a stock item. Direct entries have EntreeDirecte set; indirect
// ones carry the supplier invoice reference.
type Article struct {
	ID              int64  `json:"id"`
	Designation     string `json:"designation"`
	Caracteristique string `json:"caracteristique"`
	Quantite        Count  `json:"quantite"`
	TypeArticleID   int64  `json:"typeArticleId"`
	CategorieID     int64  `json:"categorieId"`
	EntreeDirecte   bool   `json:"entreeDirecte"`
	Fournisseur     string `json:"fournisseur"`
	NumeroFacture   string `json:"numeroFacture"`
	DateFacture     string `json:"dateFacture"`
	CreatedAt       string `json:"createdAt"`
}

// NewArticle is the body of POST /articles.
type NewArticle struct {
	Designation     string       `json:"designation"`
	Caracteristique string       `json:"caracteristique"`
	Quantite        int          `json:"quantite"`
	EntreeDirecte   bool         `json:"entreeDirecte"`
	EntreeIndirecte bool         `json:"entreeIndirecte"`
	SortieDirecte   bool         `json:"sortieDirecte"`
	SortieIndirecte bool         `json:"sortieIndirecte"`
	PrixAchat       *json.Number `json:"prixAchat"`
	BoutiqueID      int64        `json:"boutiqueId,omitempty"`
	CategorieID     int64        `json:"categorieId,omitempty"`
	TypeArticleID   int64        `json:"typeArticleId,omitempty"`
	Fournisseur     string       `json:"fournisseur,omitempty"`
	NumeroFacture   string       `json:"numeroFacture,omitempty"`
	DateFacture     string       `json:"dateFacture,omitempty"`
}

// Fournisseur is a supplier.
type Fournisseur struct {
	ID           int64  `json:"id,omitempty"`
	Nom          string `json:"nom"`
	Prenom       string `json:"prenom"`
	Email        string `json:"email"`
	Contact      string `json:"contact"`
	Localisation string `json:"localisation"`
}

// Client is a customer.
type Client struct {
	ID      int64  `json:"id,omitempty"`
	Nom     string `json:"nom"`
	Prenom  string `json:"prenom"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
	Adresse string `json:"adresse"`
}

// DisplayName joins first and last name.
func (c Client) DisplayName() string {
	return strings.TrimSpace(c.Prenom + " " + c.Nom)
}

// DisplayName joins first and last name.
func (f Fournisseur) DisplayName() string {
	return strings.TrimSpace(f.Prenom + " " + f.Nom)
}

// Sortie is a stock exit. Direct exits carry a reason and a service, indirect
// exits a recipient and an exit voucher.
type Sortie struct {
	ID              int64  `json:"id,omitempty"`
	Designation     string `json:"designation"`
	Caracteristique string `json:"caracteristique"`
	Quantite        Count  `json:"quantite"`
	TypeArticleID   int64  `json:"typeArticleId,omitempty"`
	SortieDirecte   bool   `json:"sortieDirecte"`
	Motif           string `json:"motif,omitempty"`
	Service         string `json:"service,omitempty"`
	Destinataire    string `json:"destinataire,omitempty"`
	NumeroBonSortie string `json:"numeroBonSortie,omitempty"`
	DateSortie      string `json:"dateSortie,omitempty"`
	Departement     string `json:"departement,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

// AchatLine is one stored purchase line. RemiseArticle and TvaArticle are
// amounts; the percentages are only present on recent records.
type AchatLine struct {
	ArticleID        int64            `json:"articleId"`
	Designation      string           `json:"designation"`
	Caracteristique  string           `json:"caracteristique"`
	Quantite         Count            `json:"quantite"`
	Prix             decimal.Decimal  `json:"prix"`
	RemiseArticle    decimal.Decimal  `json:"remiseArticle"`
	TvaArticle       decimal.Decimal  `json:"tvaArticle"`
	RemisePercentage *decimal.Decimal `json:"remisePercentage"`
	TvaPercentage    *decimal.Decimal `json:"tvaPercentage"`
	MontantHT        decimal.Decimal  `json:"montantHT"`
	MontantTTC       decimal.Decimal  `json:"montantTTC"`
}

// Achat is a stored purchase.
type Achat struct {
	ID                    int64           `json:"id"`
	FournisseurID         int64           `json:"fournisseurId"`
	Fournisseur           *Fournisseur    `json:"fournisseur,omitempty"`
	DateAchat             string          `json:"dateAchat"`
	ArticlesData          []AchatLine     `json:"articlesData"`
	MontantHT             decimal.Decimal `json:"montantHT"`
	MontantTVA            decimal.Decimal `json:"montantTVA"`
	RemiseArticles        decimal.Decimal `json:"remiseArticles"`
	RemiseGlobale         decimal.Decimal `json:"remiseGlobale"`
	RemiseGlobalePourcent decimal.Decimal `json:"remiseGlobalePourcent"`
	TauxRemise            decimal.Decimal `json:"tauxRemise"`
	RemiseTotalPourcent   decimal.Decimal `json:"remiseTotalPourcent"`
	MontantTotal          decimal.Decimal `json:"montantTotal"`
}

// GlobalDiscountPercent returns whichever global percent field the backend
// filled in. TauxRemise holds an amount and is never read as a rate.
func (a Achat) GlobalDiscountPercent() decimal.Decimal {
	if !a.RemiseGlobalePourcent.IsZero() {
		return a.RemiseGlobalePourcent
	}
	return a.RemiseTotalPourcent
}

// VenteLine is one stored sale line. RemiseArticle and TvaArticle are
// amounts.
type VenteLine struct {
	ArticleID        int64            `json:"articleId"`
	Quantite         Count            `json:"quantite"`
	PrixVente        decimal.Decimal  `json:"prixVente"`
	RemiseArticle    decimal.Decimal  `json:"remiseArticle"`
	TvaArticle       decimal.Decimal  `json:"tvaArticle"`
	RemisePercentage *decimal.Decimal `json:"remisePercentage"`
	TvaPercentage    *decimal.Decimal `json:"tvaPercentage"`
}

// Vente is a stored sale. TauxRemise is the total line discount amount.
type Vente struct {
	ID                  int64           `json:"id"`
	ClientID            int64           `json:"clientId"`
	Client              *Client         `json:"client,omitempty"`
	DateVente           string          `json:"dateVente"`
	ArticleData         []VenteLine     `json:"articleData"`
	TauxRemise          decimal.Decimal `json:"tauxRemise"`
	MontantTVA          decimal.Decimal `json:"montantTVA"`
	RemiseTotalPourcent decimal.Decimal `json:"remiseTotalPourcent"`
	MontantTotal        decimal.Decimal `json:"montantTotal"`
}

// GlobalDiscountPercent returns the stored global percent.
func (v Vente) GlobalDiscountPercent() decimal.Decimal {
	return v.RemiseTotalPourcent
}

// AchatArticle is a purchase line in a POST /achats body.
type AchatArticle struct {
	ArticleID        int64       `json:"articleId"`
	Designation      string      `json:"designation"`
	Caracteristique  string      `json:"caracteristique"`
	CategorieID      int64       `json:"categorieId,omitempty"`
	Type             string      `json:"type,omitempty"`
	Quantite         int         `json:"quantite"`
	Prix             json.Number `json:"prix"`
	MontantHT        json.Number `json:"montantHT"`
	RemiseArticle    json.Number `json:"remiseArticle"`
	TvaArticle       json.Number `json:"tvaArticle"`
	MontantTTC       json.Number `json:"montantTTC"`
	RemisePercentage json.Number `json:"remisePercentage"`
	TvaPercentage    json.Number `json:"tvaPercentage"`
}

// NewAchat is the body of POST /achats.
type NewAchat struct {
	FournisseurID         int64          `json:"fournisseurId"`
	DateAchat             string         `json:"dateAchat"`
	ArticlesData          []AchatArticle `json:"articlesData"`
	MontantHT             json.Number    `json:"montantHT"`
	MontantTVA            json.Number    `json:"montantTVA"`
	RemiseArticles        json.Number    `json:"remiseArticles"`
	RemiseGlobale         json.Number    `json:"remiseGlobale"`
	RemiseGlobalePourcent json.Number    `json:"remiseGlobalePourcent"`
	MontantTotal          json.Number    `json:"montantTotal"`
}

// VenteArticle is a sale line in a POST /ventes body.
type VenteArticle struct {
	ArticleID        int64       `json:"articleId"`
	Quantite         int         `json:"quantite"`
	PrixVente        json.Number `json:"prixVente"`
	RemiseArticle    json.Number `json:"remiseArticle"`
	TvaArticle       json.Number `json:"tvaArticle"`
	RemisePercentage json.Number `json:"remisePercentage"`
	TvaPercentage    json.Number `json:"tvaPercentage"`
}

// NewVente is the body of POST /ventes.
type NewVente struct {
	ClientID            int64          `json:"clientId"`
	DateVente           string         `json:"dateVente"`
	ArticleData         []VenteArticle `json:"articleData"`
	TauxRemise          json.Number    `json:"tauxRemise"`
	MontantTVA          json.Number    `json:"montantTVA"`
	RemiseTotalPourcent json.Number    `json:"remiseTotalPourcent"`
	MontantTotal        json.Number    `json:"montantTotal"`
}

// Number renders d as an exact JSON number. Callers round first where the
// backend expects display precision.
func Number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate reads the date formats the backend emits. The result is in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("backend: invalid date %q", raw)
}
