package refdata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/soleilcom/gestion/internal/backend"
)

// Fetcher is the subset of the backend client the loader reads from.
type Fetcher interface {
	Articles(ctx context.Context) ([]backend.Article, error)
	TypeArticles(ctx context.Context) ([]backend.TypeArticle, error)
	Categories(ctx context.Context) ([]backend.Categorie, error)
	Fournisseurs(ctx context.Context) ([]backend.Fournisseur, error)
	Clients(ctx context.Context) ([]backend.Client, error)
}

// Loader fetches snapshots. Identical concurrent fetches are collapsed.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger
	group   singleflight.Group
}

// NewLoader constructs a Loader.
func NewLoader(fetcher Fetcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fetcher: fetcher, logger: logger}
}

// Load fetches the requested sources in parallel. A failing source is
// recorded in Snapshot.Errors and leaves the others untouched.
func (l *Loader) Load(ctx context.Context, sources ...Source) Snapshot {
	var (
		snap Snapshot
		mu   sync.Mutex
		g    errgroup.Group
	)
	fail := func(src Source, err error) {
		mu.Lock()
		defer mu.Unlock()
		if snap.Errors == nil {
			snap.Errors = make(map[Source]error)
		}
		snap.Errors[src] = err
		l.logger.Warn("reference data unavailable", slog.String("source", string(src)), slog.Any("error", err))
	}

	for _, src := range dedupe(sources) {
		src := src
		g.Go(func() error {
			val, err := l.fetch(ctx, src)
			if err != nil {
				fail(src, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			switch v := val.(type) {
			case []backend.Article:
				snap.Articles = v
			case []backend.TypeArticle:
				snap.Types = v
			case []backend.Categorie:
				snap.Categories = v
			case []backend.Fournisseur:
				snap.Suppliers = v
			case []backend.Client:
				snap.Clients = v
			}
			return nil
		})
	}
	_ = g.Wait()
	return snap
}

func (l *Loader) fetch(ctx context.Context, src Source) (any, error) {
	// The shared call must outlive any single waiter; the backend client
	// timeout bounds it.
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(string(src), func() (any, error) {
		switch src {
		case SourceArticles:
			return l.fetcher.Articles(shared)
		case SourceTypes:
			return l.fetcher.TypeArticles(shared)
		case SourceCategories:
			return l.fetcher.Categories(shared)
		case SourceSuppliers:
			return l.fetcher.Fournisseurs(shared)
		case SourceClients:
			return l.fetcher.Clients(shared)
		default:
			return nil, fmt.Errorf("refdata: unknown source %q", src)
		}
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func dedupe(sources []Source) []Source {
	seen := make(map[Source]struct{}, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
