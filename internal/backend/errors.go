package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/soleilcom/gestion/internal/shared"
)

var (
	// ErrBackendUnavailable marks transport failures and 5xx answers.
	ErrBackendUnavailable = fmt.Errorf("backend unavailable: %w", shared.ErrUnavailable)
	// ErrRejected marks 4xx answers other than 404.
	ErrRejected = errors.New("backend rejected request")
)

// StatusError describes a non-2xx answer from the backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend %s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Unwrap maps the status code onto the package sentinels.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusNotFound:
		return shared.ErrNotFound
	case e.Code >= 500:
		return ErrBackendUnavailable
	default:
		return ErrRejected
	}
}
