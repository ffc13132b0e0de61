package suppliers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soleilcom/gestion/internal/backend"
	"github.com/soleilcom/gestion/internal/masterdata/shared"
	internalShared "github.com/soleilcom/gestion/internal/shared"
	"github.com/soleilcom/gestion/internal/view"
	_ "github.com/soleilcom/gestion/testing"
)

type fakeClient struct {
	rows    []backend.Fournisseur
	created []backend.Fournisseur
	err     error
}

func (f *fakeClient) Fournisseurs(ctx context.Context) ([]backend.Fournisseur, error) {
	return f.rows, f.err
}

func (f *fakeClient) CreateFournisseur(ctx context.Context, in backend.Fournisseur) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, in)
	return nil
}

func manySuppliers(n int) []backend.Fournisseur {
	out := make([]backend.Fournisseur, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, backend.Fournisseur{ID: int64(i), Nom: fmt.Sprintf("Nom%02d", i), Prenom: "Prenom", Email: fmt.Sprintf("f%d@example.com", i), Localisation: "Abidjan"})
	}
	return out
}

func newTestRouter(t *testing.T, client *fakeClient) http.Handler {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(NewRepository(client)), templates, internalShared.NewCSRFManager("secret"))
	r := chi.NewRouter()
	r.Route("/fournisseurs", h.MountRoutes)
	return r
}

func TestServiceListSearchesAndPaginates(t *testing.T) {
	rows := manySuppliers(8)
	rows[7].Localisation = "Bouaké"
	svc := NewService(NewRepository(&fakeClient{rows: rows}))

	page, view, err := svc.List(context.Background(), shared.ListFilters{Page: 1, Limit: shared.DefaultLimit})
	require.NoError(t, err)
	assert.Len(t, page, 6)
	assert.Equal(t, 2, view.TotalPages)

	page, view, err = svc.List(context.Background(), shared.ListFilters{Page: 1, Limit: shared.DefaultLimit, Search: "bouaké"})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(8), page[0].ID)
	assert.Equal(t, 1, view.TotalPages)
}

func TestServiceCreateValidates(t *testing.T) {
	client := &fakeClient{}
	svc := NewService(NewRepository(client))

	err := svc.Create(context.Background(), Supplier{Nom: "Kouassi", Email: "pas-un-email"})
	require.ErrorIs(t, err, internalShared.ErrValidation)
	errs := internalShared.FieldErrors(err)
	assert.Equal(t, "Champ obligatoire", errs["prenom"])
	assert.Equal(t, "Adresse e-mail invalide", errs["email"])
	assert.NotContains(t, errs, "nom")
	assert.Empty(t, client.created)
}

func TestListPage(t *testing.T) {
	router := newTestRouter(t, &fakeClient{rows: manySuppliers(8)})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fournisseurs?page=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Nom07")
	assert.NotContains(t, body, "Nom01")
	assert.Contains(t, body, "Page 2 / 2")
}

func TestListBackendDown(t *testing.T) {
	router := newTestRouter(t, &fakeClient{err: backend.ErrBackendUnavailable})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fournisseurs", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Le serveur de données est indisponible")
}

func TestCreateSupplier(t *testing.T) {
	client := &fakeClient{}
	router := newTestRouter(t, client)

	form := url.Values{
		"nom":          {" Kouassi "},
		"prenom":       {"Jean"},
		"email":        {"jean@example.com"},
		"contact":      {"0700000000"},
		"localisation": {"Abidjan"},
	}
	req := httptest.NewRequest(http.MethodPost, "/fournisseurs", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/fournisseurs", rr.Header().Get("Location"))
	require.Len(t, client.created, 1)
	assert.Equal(t, "Kouassi", client.created[0].Nom)
}

func TestCreateSupplierInvalid(t *testing.T) {
	client := &fakeClient{}
	router := newTestRouter(t, client)

	req := httptest.NewRequest(http.MethodPost, "/fournisseurs", strings.NewReader("nom=Kouassi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Champ obligatoire")
	assert.Contains(t, rr.Body.String(), `value="Kouassi"`)
	assert.Empty(t, client.created)
}
