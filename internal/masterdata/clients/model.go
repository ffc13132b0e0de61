package clients

import "github.com/soleilcom/gestion/internal/backend"

// Client is a customer as entered in the form.
type Client struct {
	ID      int64  `form:"-"`
	Nom     string `form:"nom" validate:"required,max=100"`
	Prenom  string `form:"prenom" validate:"required,max=100"`
	Email   string `form:"email" validate:"required,email"`
	Contact string `form:"contact" validate:"required,max=30"`
	Adresse string `form:"adresse" validate:"required,max=200"`
}

func (c Client) DisplayName() string {
	return c.toBackend().DisplayName()
}

func fromBackend(c backend.Client) Client {
	return Client{ID: c.ID, Nom: c.Nom, Prenom: c.Prenom, Email: c.Email, Contact: c.Contact, Adresse: c.Adresse}
}

func (c Client) toBackend() backend.Client {
	return backend.Client{ID: c.ID, Nom: c.Nom, Prenom: c.Prenom, Email: c.Email, Contact: c.Contact, Adresse: c.Adresse}
}
