package suppliers

import "github.com/soleilcom/gestion/internal/backend"

// Supplier is a fournisseur as entered in the form.
type Supplier struct {
	ID           int64  `form:"-"`
	Nom          string `form:"nom" validate:"required,max=100"`
	Prenom       string `form:"prenom" validate:"required,max=100"`
	Email        string `form:"email" validate:"required,email"`
	Contact      string `form:"contact" validate:"required,max=30"`
	Localisation string `form:"localisation" validate:"required,max=200"`
}

// DisplayName is "Prenom Nom".
func (s Supplier) DisplayName() string {
	return s.toBackend().DisplayName()
}

func fromBackend(f backend.Fournisseur) Supplier {
	return Supplier{ID: f.ID, Nom: f.Nom, Prenom: f.Prenom, Email: f.Email, Contact: f.Contact, Localisation: f.Localisation}
}

func (s Supplier) toBackend() backend.Fournisseur {
	return backend.Fournisseur{ID: s.ID, Nom: s.Nom, Prenom: s.Prenom, Email: s.Email, Contact: s.Contact, Localisation: s.Localisation}
}
