package suppliers

import (
	"context"

	"github.com/soleilcom/gestion/internal/backend"
)

// Repository reads and writes suppliers.
type Repository interface {
	List(ctx context.Context) ([]Supplier, error)
	Create(ctx context.Context, supplier Supplier) error
}

// Client is the part of the backend client suppliers use.
type Client interface {
	Fournisseurs(ctx context.Context) ([]backend.Fournisseur, error)
	CreateFournisseur(ctx context.Context, in backend.Fournisseur) error
}

type repository struct {
	client Client
}

// NewRepository stores suppliers through the backend API.
func NewRepository(client Client) Repository {
	return &repository{client: client}
}

func (r *repository) List(ctx context.Context) ([]Supplier, error) {
	rows, err := r.client.Fournisseurs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Supplier, 0, len(rows))
	for _, f := range rows {
		out = append(out, fromBackend(f))
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, supplier Supplier) error {
	return r.client.CreateFournisseur(ctx, supplier.toBackend())
}
