package suppliers

import (
	"context"

	"github.com/soleilcom/gestion/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the page of suppliers matching the search term.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, shared.PageView, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, shared.PageView{}, err
	}
	matched := make([]Supplier, 0, len(all))
	for _, sup := range all {
		if shared.Matches(filters.Search, sup.Nom, sup.Prenom, sup.Email, sup.Contact, sup.Localisation) {
			matched = append(matched, sup)
		}
	}
	page, view := shared.Paginate(matched, filters)
	return page, view, nil
}

func (s *Service) Create(ctx context.Context, supplier Supplier) error {
	if err := s.validate(supplier); err != nil {
		return err
	}
	return s.repo.Create(ctx, supplier)
}
