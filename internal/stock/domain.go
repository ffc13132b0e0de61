// Package stock covers article creation, inventory and stock movements.
package stock

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soleilcom/gestion/internal/backend"
	"github.com/soleilcom/gestion/internal/shared"
)

// Mode separates direct movements from those tied to a third-party document.
type Mode string

const (
	ModeDirect   Mode = "direct"
	ModeIndirect Mode = "indirect"
)

// ErrDuplicateMovement is returned when the same form is posted twice.
var ErrDuplicateMovement = fmt.Errorf("stock: movement already recorded: %w", shared.ErrIdempotencyConflict)

// ErrInvalidRequestID is returned when a form carries a malformed request id.
var ErrInvalidRequestID = errors.New("stock: invalid request id")

// ParseMode defaults to direct.
func ParseMode(raw string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(raw))) == ModeIndirect {
		return ModeIndirect
	}
	return ModeDirect
}

// ArticleInput is the article creation form.
type ArticleInput struct {
	Designation     string `form:"designation" validate:"required,max=200"`
	Caracteristique string `form:"caracteristique" validate:"max=500"`
	Quantite        int    `form:"quantite" validate:"gte=0"`
	CategorieID     int64  `form:"categorie" validate:"gte=0"`
	TypeArticleID   int64  `form:"type" validate:"gte=0"`
}

func (in ArticleInput) toBackend() backend.NewArticle {
	return backend.NewArticle{
		Designation:     in.Designation,
		Caracteristique: in.Caracteristique,
		Quantite:        in.Quantite,
		EntreeDirecte:   true,
		BoutiqueID:      1,
		CategorieID:     in.CategorieID,
		TypeArticleID:   in.TypeArticleID,
	}
}

// EntryInput is a stock entry. Indirect entries reference a supplier invoice.
type EntryInput struct {
	Mode            Mode   `form:"mode" validate:"oneof=direct indirect"`
	Designation     string `form:"designation" validate:"required,max=200"`
	Caracteristique string `form:"caracteristique" validate:"max=500"`
	Quantite        int    `form:"quantite" validate:"gt=0"`
	TypeArticleID   int64  `form:"type" validate:"gt=0"`
	Fournisseur     string `form:"fournisseur" validate:"required_if=Mode indirect,max=200"`
	NumeroFacture   string `form:"numero_facture" validate:"required_if=Mode indirect,max=100"`
	DateFacture     string `form:"date_facture" validate:"required_if=Mode indirect,omitempty,datetime=2006-01-02"`
}

func (in EntryInput) toBackend() backend.NewArticle {
	out := backend.NewArticle{
		Designation:     in.Designation,
		Caracteristique: in.Caracteristique,
		Quantite:        in.Quantite,
		TypeArticleID:   in.TypeArticleID,
		EntreeDirecte:   in.Mode == ModeDirect,
		EntreeIndirecte: in.Mode == ModeIndirect,
	}
	if in.Mode == ModeIndirect {
		out.Fournisseur = in.Fournisseur
		out.NumeroFacture = in.NumeroFacture
		out.DateFacture = in.DateFacture
	}
	return out
}

// ExitInput is a stock exit. Direct exits state a reason and a service,
// indirect ones a recipient and an exit voucher.
type ExitInput struct {
	Mode            Mode   `form:"mode" validate:"oneof=direct indirect"`
	Designation     string `form:"designation" validate:"required,max=200"`
	Caracteristique string `form:"caracteristique" validate:"max=500"`
	Quantite        int    `form:"quantite" validate:"gt=0"`
	TypeArticleID   int64  `form:"type" validate:"gt=0"`
	Motif           string `form:"motif" validate:"required_if=Mode direct,max=200"`
	Service         string `form:"service" validate:"required_if=Mode direct,max=100"`
	Destinataire    string `form:"destinataire" validate:"required_if=Mode indirect,max=200"`
	NumeroBonSortie string `form:"numero_bon_sortie" validate:"required_if=Mode indirect,max=100"`
	DateSortie      string `form:"date_sortie" validate:"required_if=Mode indirect,omitempty,datetime=2006-01-02"`
	Departement     string `form:"departement" validate:"required_if=Mode indirect,max=100"`
}

func (in ExitInput) toBackend() backend.Sortie {
	out := backend.Sortie{
		Designation:     in.Designation,
		Caracteristique: in.Caracteristique,
		Quantite:        backend.Count(in.Quantite),
		TypeArticleID:   in.TypeArticleID,
		SortieDirecte:   in.Mode == ModeDirect,
	}
	if in.Mode == ModeDirect {
		out.Motif = in.Motif
		out.Service = in.Service
	} else {
		out.Destinataire = in.Destinataire
		out.NumeroBonSortie = in.NumeroBonSortie
		out.DateSortie = in.DateSortie
		out.Departement = in.Departement
	}
	return out
}

// InventoryRow is an article with its reference names resolved.
type InventoryRow struct {
	backend.Article
	TypeName     string
	CategoryName string
}

// CategoryCount is the stock quantity of one category on the home page.
type CategoryCount struct {
	ID       int64
	Name     string
	Quantity int
	Failed   bool
}
