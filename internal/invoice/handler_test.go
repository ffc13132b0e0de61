package invoice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soleilcom/gestion/internal/backend"
	"github.com/soleilcom/gestion/internal/documents"
	"github.com/soleilcom/gestion/internal/refdata"
	"github.com/soleilcom/gestion/internal/shared"
	"github.com/soleilcom/gestion/internal/view"
	_ "github.com/soleilcom/gestion/testing"
)

type fakeBackend struct {
	achats map[int64]backend.Achat
	err    error
	calls  atomic.Int32
}

func (f *fakeBackend) Achat(ctx context.Context, id int64) (backend.Achat, error) {
	f.calls.Add(1)
	if f.err != nil {
		return backend.Achat{}, f.err
	}
	a, ok := f.achats[id]
	if !ok {
		return backend.Achat{}, &backend.StatusError{Method: http.MethodGet, Path: "/achats", Code: http.StatusNotFound}
	}
	return a, nil
}

func (f *fakeBackend) Vente(ctx context.Context, id int64) (backend.Vente, error) {
	f.calls.Add(1)
	if f.err != nil {
		return backend.Vente{}, f.err
	}
	return backend.Vente{ID: id, ClientID: 5}, nil
}

func TestServiceSortsSnapshotWarnings(t *testing.T) {
	snap := testSnapshot
	snap.Errors = map[refdata.Source]error{
		refdata.SourceTypes:    errors.New("boom"),
		refdata.SourceClients:  errors.New("boom"),
		refdata.SourceArticles: errors.New("boom"),
	}
	svc := NewService(&fakeBackend{}, &fakeRefs{snap: snap}, company)

	for range 5 {
		inv, err := svc.Invoice(context.Background(), documents.KindVente, "5")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"Données indisponibles : articles",
			"Données indisponibles : clients",
			"Données indisponibles : types",
		}, inv.Warnings)
	}
}

type fakeRefs struct {
	snap    refdata.Snapshot
	sources []refdata.Source
}

func (f *fakeRefs) Load(ctx context.Context, sources ...refdata.Source) refdata.Snapshot {
	f.sources = sources
	return f.snap
}

func newTestHandler(t *testing.T, b *fakeBackend) http.Handler {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	svc := NewService(b, &fakeRefs{snap: testSnapshot}, company)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, templates, shared.NewCSRFManager("secret"))
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestServiceLoadsPartySourceForKind(t *testing.T) {
	refs := &fakeRefs{snap: testSnapshot}
	svc := NewService(&fakeBackend{}, refs, company)

	inv, err := svc.Invoice(context.Background(), documents.KindVente, "5")
	require.NoError(t, err)
	assert.Equal(t, "Awa Yao", inv.Party.Name)
	assert.Contains(t, refs.sources, refdata.SourceClients)
	assert.NotContains(t, refs.sources, refdata.SourceSuppliers)
}

func TestServiceRejectsMalformedID(t *testing.T) {
	b := &fakeBackend{}
	svc := NewService(b, &fakeRefs{}, company)

	_, err := svc.Invoice(context.Background(), documents.KindAchat, "abc")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Zero(t, b.calls.Load())
}

func TestServiceReportsSnapshotFailures(t *testing.T) {
	snap := testSnapshot
	snap.Errors = map[refdata.Source]error{refdata.SourceArticles: errors.New("boom")}
	svc := NewService(&fakeBackend{}, &fakeRefs{snap: snap}, company)

	inv, err := svc.Invoice(context.Background(), documents.KindVente, "5")
	require.NoError(t, err)
	assert.Contains(t, inv.Warnings, "Données indisponibles : articles")
}

func TestShowInvoice(t *testing.T) {
	b := &fakeBackend{achats: map[int64]backend.Achat{
		12: {
			ID:            12,
			FournisseurID: 4,
			DateAchat:     "2024-05-02",
			ArticlesData:  []backend.AchatLine{{ArticleID: 7, Quantite: 2, Prix: dec("100"), RemisePercentage: decPtr("10"), TvaPercentage: decPtr("18")}},
		},
	}}
	router := newTestHandler(t, b)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/factures/achat/12", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Facture FACT-012")
	assert.Contains(t, body, "Jean Kouassi")
	assert.Contains(t, body, "Soleil SARL")
	assert.Contains(t, body, "Clavier")
	assert.Contains(t, body, "02/05/2024")
}

func TestShowInvoiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{name: "unknown type", path: "/factures/devis/1", status: http.StatusNotFound},
		{name: "missing document", path: "/factures/achat/404", status: http.StatusNotFound},
		{name: "malformed id", path: "/factures/achat/x", status: http.StatusNotFound},
		{name: "backend down", path: "/factures/vente/1", err: backend.ErrBackendUnavailable, status: http.StatusBadGateway},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestHandler(t, &fakeBackend{err: tc.err})
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.status, rr.Code)
		})
	}
}
