package invoice

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soleilcom/gestion/internal/backend"
	"github.com/soleilcom/gestion/internal/documents"
	"github.com/soleilcom/gestion/internal/refdata"
	"github.com/soleilcom/gestion/internal/shared"
)

// Backend reads stored documents.
type Backend interface {
	Achat(ctx context.Context, id int64) (backend.Achat, error)
	Vente(ctx context.Context, id int64) (backend.Vente, error)
}

// ReferenceLoader loads reference snapshots.
type ReferenceLoader interface {
	Load(ctx context.Context, sources ...refdata.Source) refdata.Snapshot
}

// Service assembles invoices.
type Service struct {
	backend Backend
	refs    ReferenceLoader
	company Company
	loc     *time.Location
}

// NewService constructs the invoice service.
func NewService(b Backend, refs ReferenceLoader, company Company) *Service {
	return &Service{backend: b, refs: refs, company: company, loc: time.Local}
}

// Invoice fetches the document and the reference data it needs in parallel.
func (s *Service) Invoice(ctx context.Context, kind documents.Kind, rawID string) (Invoice, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return Invoice{}, fmt.Errorf("invoice %q: %w", rawID, shared.ErrNotFound)
	}

	party := refdata.SourceSuppliers
	if kind == documents.KindVente {
		party = refdata.SourceClients
	}

	var (
		snap  refdata.Snapshot
		achat backend.Achat
		vente backend.Vente
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap = s.refs.Load(gctx, refdata.SourceArticles, refdata.SourceTypes, party)
		return nil
	})
	g.Go(func() error {
		var err error
		if kind == documents.KindVente {
			vente, err = s.backend.Vente(gctx, id)
		} else {
			achat, err = s.backend.Achat(gctx, id)
		}
		if err != nil {
			return fmt.Errorf("load %s %d: %w", kind, id, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Invoice{}, err
	}

	var inv Invoice
	if kind == documents.KindVente {
		inv = FromVente(vente, snap, s.company, s.loc)
	} else {
		inv = FromAchat(achat, snap, s.company, s.loc)
	}
	var unavailable []string
	for src, err := range snap.Errors {
		if err != nil {
			unavailable = append(unavailable, "Données indisponibles : "+string(src))
		}
	}
	sort.Strings(unavailable)
	inv.Warnings = append(inv.Warnings, unavailable...)
	return inv, nil
}
