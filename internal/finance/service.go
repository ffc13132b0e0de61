package finance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soleilcom/gestion/internal/backend"
)

// Backend lists the documents and articles a report needs.
type Backend interface {
	Achats(ctx context.Context) ([]backend.Achat, error)
	Ventes(ctx context.Context) ([]backend.Vente, error)
	Articles(ctx context.Context) ([]backend.Article, error)
}

// Service builds and caches finance reports.
type Service struct {
	backend Backend
	cache   *Cache
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs the finance service. A nil cache disables caching.
func NewService(b Backend, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, cache: cache, logger: logger, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Report returns the cached report of period, computing it on a miss.
func (s *Service) Report(ctx context.Context, period Period) (Report, error) {
	now := s.now()
	key, err := s.cache.BuildKey(ctx, reportKeyParts(period, now)...)
	if err != nil {
		return Report{}, fmt.Errorf("finance: cache key: %w", err)
	}
	var report Report
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		in, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		return BuildReport(in, period, now), nil
	})
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

// Warm recomputes every period from one backend fetch and overwrites the
// cached entries.
func (s *Service) Warm(ctx context.Context) error {
	in, err := s.load(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	for _, period := range Periods {
		key, err := s.cache.BuildKey(ctx, reportKeyParts(period, now)...)
		if err != nil {
			return fmt.Errorf("finance: cache key: %w", err)
		}
		if err := s.cache.StoreJSON(ctx, key, BuildReport(in, period, now)); err != nil {
			return fmt.Errorf("finance: store %s report: %w", period, err)
		}
	}
	s.logger.Info("finance reports warmed", slog.Int("achats", len(in.Achats)), slog.Int("ventes", len(in.Ventes)))
	return nil
}

func (s *Service) load(ctx context.Context) (Inputs, error) {
	var in Inputs
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		achats, err := s.backend.Achats(ctx)
		if err != nil {
			return fmt.Errorf("finance: load achats: %w", err)
		}
		in.Achats = achats
		return nil
	})
	g.Go(func() error {
		ventes, err := s.backend.Ventes(ctx)
		if err != nil {
			return fmt.Errorf("finance: load ventes: %w", err)
		}
		in.Ventes = ventes
		return nil
	})
	g.Go(func() error {
		articles, err := s.backend.Articles(ctx)
		if err != nil {
			return fmt.Errorf("finance: load articles: %w", err)
		}
		in.Articles = articles
		return nil
	})
	if err := g.Wait(); err != nil {
		return Inputs{}, err
	}
	return in, nil
}

// reportKeyParts scopes a cached report to the calendar day it was built
// on, since day, month and year periods move with the clock.
func reportKeyParts(period Period, now time.Time) []string {
	return []string{"report", string(period), now.Format("2006-01-02")}
}
