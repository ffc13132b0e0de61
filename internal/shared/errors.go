package shared

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks a dependency that could not be reached.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrValidation marks user input rejected before reaching the backend.
	ErrValidation = errors.New("validation failed")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps an error to a message that can be shown in a page.
// Unknown errors collapse to a generic message so internals never leak.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Élément introuvable"
	case errors.Is(err, ErrIdempotencyConflict):
		return "Ce document a déjà été soumis"
	case errors.Is(err, ErrUnavailable):
		return "Le serveur de données est indisponible"
	case errors.Is(err, ErrValidation):
		return err.Error()
	default:
		return "Une erreur est survenue, veuillez réessayer"
	}
}

// FieldErrors flattens validator errors into a field -> message map keyed by
// the struct field name.
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			out["general"] = err.Error()
		}
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "Champ obligatoire"
	case "email":
		return "Adresse e-mail invalide"
	case "gt", "gte", "min":
		return "Valeur trop petite"
	case "lt", "lte", "max":
		return "Valeur trop grande"
	case "datetime":
		return "Date invalide"
	case "oneof":
		return "Valeur non autorisée"
	default:
		return fe.Error()
	}
}
