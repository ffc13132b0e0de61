package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/soleilcom/gestion/internal/backend"
	"github.com/soleilcom/gestion/internal/masterdata/shared"
	"github.com/soleilcom/gestion/internal/refdata"
	appshared "github.com/soleilcom/gestion/internal/shared"
)

const (
	// InventoryLimit is the number of rows on an inventory page.
	InventoryLimit = 10
	// MovementLimit is the number of rows on an entry or exit page.
	MovementLimit = 6

	idempotencyModule = "stock"
	categoryWorkers   = 4
)

// API is the part of the backend client stock pages use.
type API interface {
	Categories(ctx context.Context) ([]backend.Categorie, error)
	ArticlesByCategory(ctx context.Context, categoryID int64) ([]backend.Article, error)
	CreateArticle(ctx context.Context, in backend.NewArticle) error
	Sorties(ctx context.Context) ([]backend.Sortie, error)
	CreateSortie(ctx context.Context, in backend.Sortie) error
}

// ReferenceLoader loads articles, types and categories.
type ReferenceLoader interface {
	Load(ctx context.Context, sources ...refdata.Source) refdata.Snapshot
}

// Idempotency guards movement forms against double posts.
type Idempotency interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Service coordinates stock pages.
type Service struct {
	api      API
	refs     ReferenceLoader
	idem     Idempotency
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(api API, refs ReferenceLoader, idem Idempotency, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, refs: refs, idem: idem, validate: shared.NewValidator(), logger: logger}
}

// Choices are the select options of stock forms.
type Choices struct {
	Types      []backend.TypeArticle
	Categories []backend.Categorie
	Warnings   []string
}

// Choices loads types and categories. Failures become warnings.
func (s *Service) Choices(ctx context.Context) Choices {
	snap := s.refs.Load(ctx, refdata.SourceTypes, refdata.SourceCategories)
	return Choices{Types: snap.Types, Categories: snap.Categories, Warnings: warnings(snap)}
}

// Inventory lists articles matching filters, optionally restricted to a category.
func (s *Service) Inventory(ctx context.Context, filters shared.ListFilters, categoryID int64) ([]InventoryRow, shared.PageView, Choices, error) {
	rows, choices, err := s.inventoryRows(ctx, filters.Search, categoryID)
	if err != nil {
		return nil, shared.PageView{Filters: filters}, choices, err
	}
	page, view := shared.Paginate(rows, filters)
	return page, view, choices, nil
}

// InventoryExport returns every matching row, without pagination.
func (s *Service) InventoryExport(ctx context.Context, search string, categoryID int64) ([]InventoryRow, error) {
	rows, _, err := s.inventoryRows(ctx, search, categoryID)
	return rows, err
}

func (s *Service) inventoryRows(ctx context.Context, search string, categoryID int64) ([]InventoryRow, Choices, error) {
	snap := s.refs.Load(ctx, refdata.SourceArticles, refdata.SourceTypes, refdata.SourceCategories)
	choices := Choices{Types: snap.Types, Categories: snap.Categories}
	if err := snap.Err(refdata.SourceArticles); err != nil {
		return nil, choices, fmt.Errorf("stock: load articles: %w", err)
	}
	choices.Warnings = warnings(snap)

	rows := make([]InventoryRow, 0, len(snap.Articles))
	for _, a := range snap.Articles {
		if categoryID > 0 && a.CategorieID != categoryID {
			continue
		}
		row := InventoryRow{Article: a, TypeName: typeName(snap, a.TypeArticleID), CategoryName: categoryName(snap, a.CategorieID)}
		if !shared.Matches(search, a.Designation, a.Caracteristique, strconv.Itoa(int(a.Quantite)), row.TypeName, row.CategoryName) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, choices, nil
}

// Entries lists articles entered in mode.
func (s *Service) Entries(ctx context.Context, mode Mode, filters shared.ListFilters) ([]InventoryRow, shared.PageView, Choices, error) {
	snap := s.refs.Load(ctx, refdata.SourceArticles, refdata.SourceTypes)
	choices := Choices{Types: snap.Types}
	if err := snap.Err(refdata.SourceArticles); err != nil {
		return nil, shared.PageView{Filters: filters}, choices, fmt.Errorf("stock: load entries: %w", err)
	}
	choices.Warnings = warnings(snap)

	var rows []InventoryRow
	for _, a := range snap.Articles {
		if a.EntreeDirecte != (mode == ModeDirect) {
			continue
		}
		row := InventoryRow{Article: a, TypeName: typeName(snap, a.TypeArticleID)}
		if !shared.Matches(filters.Search, a.Designation, a.Caracteristique, row.TypeName, a.Fournisseur, a.NumeroFacture, a.DateFacture) {
			continue
		}
		rows = append(rows, row)
	}
	page, view := shared.Paginate(rows, filters)
	return page, view, choices, nil
}

// ExitRow is a stock exit with its type name.
type ExitRow struct {
	backend.Sortie
	TypeName string
}

// Exits lists stock exits recorded in mode.
func (s *Service) Exits(ctx context.Context, mode Mode, filters shared.ListFilters) ([]ExitRow, shared.PageView, Choices, error) {
	var (
		sorties []backend.Sortie
		snap    refdata.Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sorties, err = s.api.Sorties(gctx)
		return err
	})
	g.Go(func() error {
		snap = s.refs.Load(gctx, refdata.SourceTypes)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, shared.PageView{Filters: filters}, Choices{}, fmt.Errorf("stock: load exits: %w", err)
	}
	choices := Choices{Types: snap.Types, Warnings: warnings(snap)}

	var rows []ExitRow
	for _, so := range sorties {
		if so.SortieDirecte != (mode == ModeDirect) {
			continue
		}
		row := ExitRow{Sortie: so, TypeName: typeName(snap, so.TypeArticleID)}
		if !shared.Matches(filters.Search, so.Designation, so.Caracteristique, row.TypeName, so.Motif, so.Service,
			so.Destinataire, so.NumeroBonSortie, so.DateSortie, so.Departement) {
			continue
		}
		rows = append(rows, row)
	}
	page, view := shared.Paginate(rows, filters)
	return page, view, choices, nil
}

// CreateArticle validates and stores a new article.
func (s *Service) CreateArticle(ctx context.Context, in ArticleInput) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", appshared.ErrValidation, err)
	}
	if err := s.api.CreateArticle(ctx, in.toBackend()); err != nil {
		return fmt.Errorf("stock: create article: %w", err)
	}
	s.logger.Info("article created", slog.String("designation", in.Designation))
	return nil
}

// CreateEntry records a stock entry once per request id.
func (s *Service) CreateEntry(ctx context.Context, requestID string, in EntryInput) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", appshared.ErrValidation, err)
	}
	return s.once(ctx, requestID, func() error {
		if err := s.api.CreateArticle(ctx, in.toBackend()); err != nil {
			return fmt.Errorf("stock: create entry: %w", err)
		}
		s.logger.Info("stock entry recorded", slog.String("mode", string(in.Mode)), slog.Int("quantity", in.Quantite))
		return nil
	})
}

// CreateExit records a stock exit once per request id.
func (s *Service) CreateExit(ctx context.Context, requestID string, in ExitInput) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", appshared.ErrValidation, err)
	}
	return s.once(ctx, requestID, func() error {
		if err := s.api.CreateSortie(ctx, in.toBackend()); err != nil {
			return fmt.Errorf("stock: create exit: %w", err)
		}
		s.logger.Info("stock exit recorded", slog.String("mode", string(in.Mode)), slog.Int("quantity", in.Quantite))
		return nil
	})
}

// once runs fn unless requestID was already used. The key is released when
// fn fails so the form can be resubmitted.
func (s *Service) once(ctx context.Context, requestID string, fn func() error) error {
	if requestID == "" || s.idem == nil {
		return fn()
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return ErrInvalidRequestID
	}
	if err := s.idem.CheckAndInsert(ctx, requestID, idempotencyModule); err != nil {
		if errors.Is(err, appshared.ErrIdempotencyConflict) {
			return ErrDuplicateMovement
		}
		return fmt.Errorf("stock: reserve request: %w", err)
	}
	if err := fn(); err != nil {
		if delErr := s.idem.Delete(context.WithoutCancel(ctx), requestID, idempotencyModule); delErr != nil {
			s.logger.Error("release idempotency key", slog.String("key", requestID), slog.Any("error", delErr))
		}
		return err
	}
	return nil
}

// CategoryCounts sums article quantities per category. A category whose
// articles cannot be loaded is marked Failed instead of failing the page.
func (s *Service) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	categories, err := s.api.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("stock: load categories: %w", err)
	}
	counts := make([]CategoryCount, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(categoryWorkers)
	for i, c := range categories {
		counts[i] = CategoryCount{ID: c.ID, Name: c.Nom}
		g.Go(func() error {
			articles, err := s.api.ArticlesByCategory(gctx, c.ID)
			if err != nil {
				s.logger.Warn("load category articles", slog.Int64("category", c.ID), slog.Any("error", err))
				counts[i].Failed = true
				return nil
			}
			for _, a := range articles {
				counts[i].Quantity += int(a.Quantite)
			}
			return nil
		})
	}
	_ = g.Wait()
	return counts, nil
}

func warnings(snap refdata.Snapshot) []string {
	var out []string
	for _, src := range []refdata.Source{refdata.SourceArticles, refdata.SourceTypes, refdata.SourceCategories} {
		if snap.Err(src) != nil {
			out = append(out, "Données indisponibles : "+string(src))
		}
	}
	return out
}

func typeName(snap refdata.Snapshot, id int64) string {
	if name := snap.TypeName(id); name != "" {
		return name
	}
	return "Autre"
}

func categoryName(snap refdata.Snapshot, id int64) string {
	for _, c := range snap.Categories {
		if c.ID == id {
			return c.Nom
		}
	}
	return "Autre"
}
