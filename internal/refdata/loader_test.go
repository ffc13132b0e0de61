package refdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soleilcom/gestion/internal/backend"
)

type stubFetcher struct {
	articleCalls atomic.Int32
	articleGate  chan struct{}
	typesErr     error
}

func (s *stubFetcher) Articles(ctx context.Context) ([]backend.Article, error) {
	s.articleCalls.Add(1)
	if s.articleGate != nil {
		<-s.articleGate
	}
	return []backend.Article{{ID: 1, Designation: "Clavier", TypeArticleID: 2}}, nil
}

func (s *stubFetcher) TypeArticles(ctx context.Context) ([]backend.TypeArticle, error) {
	if s.typesErr != nil {
		return nil, s.typesErr
	}
	return []backend.TypeArticle{{ID: 2, Nom: "Informatique"}}, nil
}

func (s *stubFetcher) Categories(ctx context.Context) ([]backend.Categorie, error) {
	return []backend.Categorie{{ID: 1, Nom: "Informatique"}}, nil
}

func (s *stubFetcher) Fournisseurs(ctx context.Context) ([]backend.Fournisseur, error) {
	return []backend.Fournisseur{{ID: 3, Nom: "Kouassi"}}, nil
}

func (s *stubFetcher) Clients(ctx context.Context) ([]backend.Client, error) {
	return []backend.Client{{ID: 4, Nom: "Yao"}}, nil
}

func TestLoadFetchesOnlyRequestedSources(t *testing.T) {
	loader := NewLoader(&stubFetcher{}, nil)

	snap := loader.Load(context.Background(), SourceArticles, SourceSuppliers, SourceArticles)
	assert.False(t, snap.Failed())
	assert.Len(t, snap.Articles, 1)
	assert.Len(t, snap.Suppliers, 1)
	assert.Empty(t, snap.Clients)
	assert.Empty(t, snap.Types)

	supplier, ok := snap.Supplier(3)
	require.True(t, ok)
	assert.Equal(t, "Kouassi", supplier.Nom)
	_, ok = snap.Client(4)
	assert.False(t, ok)
}

func TestLoadIsolatesFailingSource(t *testing.T) {
	boom := errors.New("types down")
	loader := NewLoader(&stubFetcher{typesErr: boom}, nil)

	snap := loader.Load(context.Background(), SourceArticles, SourceTypes, SourceClients)
	assert.True(t, snap.Failed())
	assert.ErrorIs(t, snap.Err(SourceTypes), boom)
	assert.NoError(t, snap.Err(SourceArticles))
	assert.Len(t, snap.Articles, 1)
	assert.Len(t, snap.Clients, 1)
	assert.Equal(t, "", snap.TypeName(2))
}

func TestLoadCollapsesConcurrentFetches(t *testing.T) {
	fetcher := &stubFetcher{articleGate: make(chan struct{})}
	loader := NewLoader(fetcher, nil)

	var wg sync.WaitGroup
	results := make([]Snapshot, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = loader.Load(context.Background(), SourceArticles)
		}(i)
	}
	// Let every goroutine join the in-flight call before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(fetcher.articleGate)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.articleCalls.Load())
	for _, snap := range results {
		assert.Len(t, snap.Articles, 1)
	}
}

func TestLoadHonoursCallerCancellation(t *testing.T) {
	fetcher := &stubFetcher{articleGate: make(chan struct{})}
	defer close(fetcher.articleGate)
	loader := NewLoader(fetcher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := loader.Load(ctx, SourceArticles)
	assert.ErrorIs(t, snap.Err(SourceArticles), context.Canceled)
}

func TestTypeNameResolvesKnownTypes(t *testing.T) {
	snap := NewLoader(&stubFetcher{}, nil).Load(context.Background(), SourceTypes)
	assert.Equal(t, "Informatique", snap.TypeName(2))
}
