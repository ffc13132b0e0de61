package clients

import (
	"context"

	"github.com/soleilcom/gestion/internal/backend"
)

type Repository interface {
	List(ctx context.Context) ([]Client, error)
	Create(ctx context.Context, client Client) error
}

// API is the part of the backend client this package uses.
type API interface {
	Clients(ctx context.Context) ([]backend.Client, error)
	CreateClient(ctx context.Context, in backend.Client) error
}

type repository struct {
	api API
}

func NewRepository(api API) Repository {
	return &repository{api: api}
}

func (r *repository) List(ctx context.Context) ([]Client, error) {
	rows, err := r.api.Clients(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Client, 0, len(rows))
	for _, c := range rows {
		out = append(out, fromBackend(c))
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, client Client) error {
	return r.api.CreateClient(ctx, client.toBackend())
}
