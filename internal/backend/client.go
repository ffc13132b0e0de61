// Package backend is a typed client for the remote REST API that owns the
// business data.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the development address of the API.
	DefaultBaseURL = "http://localhost:5001/api"
	// IdempotencyHeader carries the draft ID on document creation.
	IdempotencyHeader = "Idempotency-Key"

	maxErrorBody = 512
)

// API wraps interactions with the backend REST service.
type API struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a new client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *API {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// TypeArticles lists article types.
func (c *API) TypeArticles(ctx context.Context) ([]TypeArticle, error) {
	var env struct {
		TypeArticles []TypeArticle `json:"typeArticles"`
	}
	if err := c.do(ctx, http.MethodGet, "/type", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.TypeArticles, nil
}

// Categories lists article categories.
func (c *API) Categories(ctx context.Context) ([]Categorie, error) {
	var env struct {
		Categories []Categorie `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Categories, nil
}

// Articles lists every article.
func (c *API) Articles(ctx context.Context) ([]Article, error) {
	var env struct {
		Articles []Article `json:"articles"`
	}
	if err := c.do(ctx, http.MethodGet, "/articles", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Articles, nil
}

// ArticlesByCategory lists the articles of one category.
func (c *API) ArticlesByCategory(ctx context.Context, categoryID int64) ([]Article, error) {
	var env struct {
		Articles []Article `json:"articles"`
	}
	path := "/articles/category/" + strconv.FormatInt(categoryID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Articles, nil
}

// CreateArticle registers a stock entry.
func (c *API) CreateArticle(ctx context.Context, in NewArticle) error {
	return c.do(ctx, http.MethodPost, "/articles", in, nil, nil)
}

// Fournisseurs lists suppliers.
func (c *API) Fournisseurs(ctx context.Context) ([]Fournisseur, error) {
	var env struct {
		Fournisseurs []Fournisseur `json:"fournisseurs"`
	}
	if err := c.do(ctx, http.MethodGet, "/fournisseur", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Fournisseurs, nil
}

// CreateFournisseur registers a supplier.
func (c *API) CreateFournisseur(ctx context.Context, in Fournisseur) error {
	return c.do(ctx, http.MethodPost, "/fournisseur", in, nil, nil)
}

// Clients lists customers.
func (c *API) Clients(ctx context.Context) ([]Client, error) {
	var env struct {
		Clients []Client `json:"clients"`
	}
	if err := c.do(ctx, http.MethodGet, "/clients", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Clients, nil
}

// CreateClient registers a customer.
func (c *API) CreateClient(ctx context.Context, in Client) error {
	return c.do(ctx, http.MethodPost, "/clients", in, nil, nil)
}

// Achats lists purchases.
func (c *API) Achats(ctx context.Context) ([]Achat, error) {
	var env struct {
		Achats []Achat `json:"achats"`
	}
	if err := c.do(ctx, http.MethodGet, "/achats", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Achats, nil
}

// Achat fetches one purchase.
func (c *API) Achat(ctx context.Context, id int64) (Achat, error) {
	var env struct {
		Achat *Achat `json:"achat"`
	}
	if err := c.do(ctx, http.MethodGet, "/achats/"+strconv.FormatInt(id, 10), nil, nil, &env); err != nil {
		return Achat{}, err
	}
	if env.Achat == nil {
		return Achat{}, fmt.Errorf("backend: achat %d: empty envelope", id)
	}
	return *env.Achat, nil
}

// CreateAchat submits a purchase. key is sent as the Idempotency-Key header.
func (c *API) CreateAchat(ctx context.Context, key string, in NewAchat) error {
	return c.do(ctx, http.MethodPost, "/achats", in, idempotencyHeaders(key), nil)
}

// Ventes lists sales.
func (c *API) Ventes(ctx context.Context) ([]Vente, error) {
	var env struct {
		Ventes []Vente `json:"ventes"`
	}
	if err := c.do(ctx, http.MethodGet, "/ventes", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Ventes, nil
}

// Vente fetches one sale.
func (c *API) Vente(ctx context.Context, id int64) (Vente, error) {
	var env struct {
		Vente *Vente `json:"vente"`
	}
	if err := c.do(ctx, http.MethodGet, "/ventes/"+strconv.FormatInt(id, 10), nil, nil, &env); err != nil {
		return Vente{}, err
	}
	if env.Vente == nil {
		return Vente{}, fmt.Errorf("backend: vente %d: empty envelope", id)
	}
	return *env.Vente, nil
}

// CreateVente submits a sale. key is sent as the Idempotency-Key header.
func (c *API) CreateVente(ctx context.Context, key string, in NewVente) error {
	return c.do(ctx, http.MethodPost, "/ventes", in, idempotencyHeaders(key), nil)
}

// Sorties lists stock exits.
func (c *API) Sorties(ctx context.Context) ([]Sortie, error) {
	var env struct {
		Sorties []Sortie `json:"sorties"`
	}
	if err := c.do(ctx, http.MethodGet, "/sorties", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Sorties, nil
}

// CreateSortie registers a stock exit.
func (c *API) CreateSortie(ctx context.Context, in Sortie) error {
	return c.do(ctx, http.MethodPost, "/sorties", in, nil, nil)
}

func idempotencyHeaders(key string) http.Header {
	if key == "" {
		return nil
	}
	h := http.Header{}
	h.Set(IdempotencyHeader, key)
	return h
}

func (c *API) do(ctx context.Context, method, path string, body any, headers http.Header, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", slog.String("method", method), slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("backend %s %s: %w: %v", method, path, ErrBackendUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.logger.Debug("backend request", slog.String("method", method), slog.String("path", path),
		slog.Int("status", resp.StatusCode), slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("backend: decode %s %s: %w", method, path, err)
	}
	return nil
}
