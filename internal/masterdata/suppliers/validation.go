package suppliers

import (
	"fmt"

	"github.com/soleilcom/gestion/internal/masterdata/shared"
	appshared "github.com/soleilcom/gestion/internal/shared"
)

var formValidator = shared.NewValidator()

func (s *Service) validate(sup Supplier) error {
	if err := formValidator.Struct(sup); err != nil {
		return fmt.Errorf("%w: %w", appshared.ErrValidation, err)
	}
	return nil
}
