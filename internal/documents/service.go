package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soleilcom/gestion/internal/backend"
	"github.com/soleilcom/gestion/internal/observability"
	"github.com/soleilcom/gestion/internal/refdata"
	"github.com/soleilcom/gestion/internal/shared"
)

// Backend is the part of the API client used by documents.
type Backend interface {
	CreateAchat(ctx context.Context, key string, in backend.NewAchat) error
	CreateVente(ctx context.Context, key string, in backend.NewVente) error
	Achats(ctx context.Context) ([]backend.Achat, error)
	Ventes(ctx context.Context) ([]backend.Vente, error)
}

// Idempotency guards submissions against replays.
type Idempotency interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// ReferenceLoader loads reference snapshots.
type ReferenceLoader interface {
	Load(ctx context.Context, sources ...refdata.Source) refdata.Snapshot
}

// Invalidator drops derived data once a document is stored.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service orchestrates draft submission and state pages.
type Service struct {
	backend Backend
	idem    Idempotency
	refs    ReferenceLoader
	caches  []Invalidator
	metrics *observability.Metrics
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewService constructs the service.
func NewService(b Backend, idem Idempotency, refs ReferenceLoader, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, idem: idem, refs: refs, metrics: metrics, logger: logger, loc: time.Local, now: time.Now}
}

// WithInvalidators registers caches bumped after every stored document.
func (s *Service) WithInvalidators(caches ...Invalidator) *Service {
	s.caches = append(s.caches, caches...)
	return s
}

// PartySource is the reference list holding the counterparts of kind.
func PartySource(kind Kind) refdata.Source {
	if kind == KindVente {
		return refdata.SourceClients
	}
	return refdata.SourceSuppliers
}

// FormData loads what the entry form of kind needs.
func (s *Service) FormData(ctx context.Context, kind Kind) refdata.Snapshot {
	return s.refs.Load(ctx, refdata.SourceArticles, refdata.SourceTypes, PartySource(kind))
}

// Submit sends the draft once. On success the draft is Submitted and the
// caller discards it. On backend failure the draft returns to Building with
// the same ID and its idempotency key is released for a retry.
func (s *Service) Submit(ctx context.Context, d *Draft) error {
	if err := d.BeginSubmit(); err != nil {
		return err
	}
	key := d.ID.String()
	module := string(d.Kind)

	if err := s.idem.CheckAndInsert(ctx, key, module); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			s.metrics.ObserveSubmission(module, observability.OutcomeDuplicate)
			_ = d.Fail(ErrDuplicateSubmission)
			return ErrDuplicateSubmission
		}
		_ = d.Fail(err)
		return fmt.Errorf("documents: reserve submission: %w", err)
	}

	if err := s.send(ctx, d, key); err != nil {
		if delErr := s.idem.Delete(context.WithoutCancel(ctx), key, module); delErr != nil {
			s.logger.Error("release idempotency key", slog.String("key", key), slog.Any("error", delErr))
		}
		s.metrics.ObserveSubmission(module, observability.OutcomeFailed)
		s.logger.Warn("submit document", slog.String("kind", module), slog.String("draft", key), slog.Any("error", err))
		_ = d.Fail(err)
		return err
	}

	s.metrics.ObserveSubmission(module, observability.OutcomeSubmitted)
	s.logger.Info("document submitted", slog.String("kind", module), slog.String("draft", key), slog.Int("lines", len(d.Items)))
	for _, c := range s.caches {
		if err := c.Bump(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("invalidate cache", slog.Any("error", err))
		}
	}
	return d.Complete()
}

func (s *Service) send(ctx context.Context, d *Draft, key string) error {
	switch d.Kind {
	case KindAchat:
		payload, err := BuildAchatPayload(d)
		if err != nil {
			return err
		}
		return s.backend.CreateAchat(ctx, key, payload)
	case KindVente:
		payload, err := BuildVentePayload(d)
		if err != nil {
			return err
		}
		return s.backend.CreateVente(ctx, key, payload)
	default:
		return fmt.Errorf("documents: unknown kind %q", d.Kind)
	}
}

// Stats loads the stored documents of kind and summarises them.
func (s *Service) Stats(ctx context.Context, kind Kind) (Stats, error) {
	snap := s.refs.Load(ctx, PartySource(kind))
	var records []Record
	switch kind {
	case KindAchat:
		achats, err := s.backend.Achats(ctx)
		if err != nil {
			return Stats{}, err
		}
		records = achatRecords(achats, s.loc, func(id int64) string {
			if f, ok := snap.Supplier(id); ok {
				return f.DisplayName()
			}
			return ""
		})
	case KindVente:
		ventes, err := s.backend.Ventes(ctx)
		if err != nil {
			return Stats{}, err
		}
		records = venteRecords(ventes, s.loc, func(id int64) string {
			if c, ok := snap.Client(id); ok {
				return c.DisplayName()
			}
			return ""
		})
	default:
		return Stats{}, fmt.Errorf("documents: unknown kind %q", kind)
	}
	return ComputeStats(records, s.now().In(s.loc)), nil
}
