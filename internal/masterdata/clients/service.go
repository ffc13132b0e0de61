package clients

import (
	"context"
	"fmt"

	"github.com/soleilcom/gestion/internal/masterdata/shared"
	appshared "github.com/soleilcom/gestion/internal/shared"
)

var formValidator = shared.NewValidator()

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the page of clients matching the search term.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Client, shared.PageView, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, shared.PageView{}, err
	}
	matched := make([]Client, 0, len(all))
	for _, c := range all {
		if shared.Matches(filters.Search, c.Nom, c.Prenom, c.Email, c.Contact, c.Adresse) {
			matched = append(matched, c)
		}
	}
	page, view := shared.Paginate(matched, filters)
	return page, view, nil
}

func (s *Service) Create(ctx context.Context, client Client) error {
	if err := formValidator.Struct(client); err != nil {
		return fmt.Errorf("%w: %w", appshared.ErrValidation, err)
	}
	return s.repo.Create(ctx, client)
}
