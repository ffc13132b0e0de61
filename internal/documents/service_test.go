package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soleilcom/gestion/internal/backend"
	"github.com/soleilcom/gestion/internal/pricing"
	"github.com/soleilcom/gestion/internal/refdata"
	"github.com/soleilcom/gestion/internal/shared"
)

type fakeBackend struct {
	achats       []backend.NewAchat
	ventes       []backend.NewVente
	keys         []string
	createErr    error
	storedAchats []backend.Achat
	storedVentes []backend.Vente
	listErr      error
}

func (f *fakeBackend) CreateAchat(ctx context.Context, key string, in backend.NewAchat) error {
	f.keys = append(f.keys, key)
	if f.createErr != nil {
		return f.createErr
	}
	f.achats = append(f.achats, in)
	return nil
}

func (f *fakeBackend) CreateVente(ctx context.Context, key string, in backend.NewVente) error {
	f.keys = append(f.keys, key)
	if f.createErr != nil {
		return f.createErr
	}
	f.ventes = append(f.ventes, in)
	return nil
}

func (f *fakeBackend) Achats(ctx context.Context) ([]backend.Achat, error) {
	return f.storedAchats, f.listErr
}

func (f *fakeBackend) Ventes(ctx context.Context) ([]backend.Vente, error) {
	return f.storedVentes, f.listErr
}

type fakeRefs struct {
	snap refdata.Snapshot
}

func (f fakeRefs) Load(ctx context.Context, sources ...refdata.Source) refdata.Snapshot {
	return f.snap
}

func newTestService(t *testing.T, b Backend) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	idem := shared.NewIdempotencyStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	refs := fakeRefs{snap: refdata.Snapshot{
		Suppliers: []backend.Fournisseur{{ID: 4, Nom: "Kouassi", Prenom: "Jean"}},
		Clients:   []backend.Client{{ID: 4, Nom: "Yao"}},
	}}
	return NewService(b, idem, refs, nil, nil)
}

func readyDraft(t *testing.T, kind Kind) *Draft {
	t.Helper()
	d := NewDraft(kind)
	require.NoError(t, d.AddLine(item(7, "100", 2, "10", "18")))
	require.NoError(t, d.SetHeader(4, "2024-05-02"))
	return d
}

func TestSubmitSendsPayloadWithDraftKey(t *testing.T) {
	b := &fakeBackend{}
	svc := newTestService(t, b)
	d := readyDraft(t, KindAchat)

	require.NoError(t, svc.Submit(context.Background(), d))
	assert.Equal(t, StateSubmitted, d.State)
	require.Len(t, b.achats, 1)
	assert.Equal(t, []string{d.ID.String()}, b.keys)
	assert.Equal(t, "216", b.achats[0].MontantTotal.String())
}

func TestSubmitTwiceIsRejectedAsDuplicate(t *testing.T) {
	b := &fakeBackend{}
	svc := newTestService(t, b)
	d := readyDraft(t, KindVente)
	replay := *d
	replay.Items = append([]pricing.LineItem{}, d.Items...)

	require.NoError(t, svc.Submit(context.Background(), d))
	err := svc.Submit(context.Background(), &replay)
	assert.ErrorIs(t, err, ErrDuplicateSubmission)
	assert.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	assert.Len(t, b.ventes, 1)
}

func TestSubmitFailureKeepsDraftAndReleasesKey(t *testing.T) {
	b := &fakeBackend{createErr: &backend.StatusError{Method: "POST", Path: "/achats", Code: 503}}
	svc := newTestService(t, b)
	d := readyDraft(t, KindAchat)
	id := d.ID

	err := svc.Submit(context.Background(), d)
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.ErrBackendUnavailable)
	assert.Equal(t, StateBuilding, d.State)
	assert.Equal(t, id, d.ID)
	assert.Len(t, d.Items, 1)

	b.createErr = nil
	require.NoError(t, svc.Submit(context.Background(), d))
	assert.Equal(t, []string{id.String(), id.String()}, b.keys)
	assert.Len(t, b.achats, 1)
}

func TestSubmitIncompleteDraftDoesNotReachBackend(t *testing.T) {
	b := &fakeBackend{}
	svc := newTestService(t, b)
	d := NewDraft(KindAchat)
	require.NoError(t, d.AddLine(item(7, "100", 2, "10", "18")))

	err := svc.Submit(context.Background(), d)
	assert.ErrorIs(t, err, ErrDraftIncomplete)
	assert.Empty(t, b.keys)
}

func TestStatsResolvesPartyNames(t *testing.T) {
	b := &fakeBackend{storedAchats: []backend.Achat{
		{ID: 1, FournisseurID: 4, DateAchat: "2024-05-02", MontantTotal: decimal.NewFromInt(216)},
	}}
	svc := newTestService(t, b)

	stats, err := svc.Stats(context.Background(), KindAchat)
	require.NoError(t, err)
	require.Len(t, stats.Records, 1)
	assert.Equal(t, "Jean Kouassi", stats.Records[0].PartyName)

	b.listErr = errors.New("down")
	_, err = svc.Stats(context.Background(), KindVente)
	assert.Error(t, err)
}

type countingInvalidator struct{ bumps int }

func (c *countingInvalidator) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

func TestSubmitBumpsInvalidatorsOnlyOnSuccess(t *testing.T) {
	b := &fakeBackend{createErr: errors.New("down")}
	inv := &countingInvalidator{}
	svc := newTestService(t, b).WithInvalidators(inv)
	d := readyDraft(t, KindVente)

	require.Error(t, svc.Submit(context.Background(), d))
	assert.Zero(t, inv.bumps)

	b.createErr = nil
	require.NoError(t, svc.Submit(context.Background(), d))
	assert.Equal(t, 1, inv.bumps)
}
