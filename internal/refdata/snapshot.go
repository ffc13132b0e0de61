// Package refdata loads the read-only reference lists (articles, types,
// categories, suppliers, clients) a page needs.
package refdata

import (
	"github.com/soleilcom/gestion/internal/backend"
)

// Source names one reference list.
type Source string

const (
	SourceArticles   Source = "articles"
	SourceTypes      Source = "types"
	SourceCategories Source = "categories"
	SourceSuppliers  Source = "suppliers"
	SourceClients    Source = "clients"
)

// Snapshot is the reference data of one page load. It must be treated as
// read-only: slices may be shared with concurrent loads.
type Snapshot struct {
	Articles   []backend.Article
	Types      []backend.TypeArticle
	Categories []backend.Categorie
	Suppliers  []backend.Fournisseur
	Clients    []backend.Client

	// Errors holds the failure of each source that could not be fetched.
	Errors map[Source]error
}

// Err returns the failure recorded for src, if any.
func (s Snapshot) Err(src Source) error {
	return s.Errors[src]
}

// Failed reports whether any source failed.
func (s Snapshot) Failed() bool {
	return len(s.Errors) > 0
}

// Article finds an article by ID.
func (s Snapshot) Article(id int64) (backend.Article, bool) {
	for _, a := range s.Articles {
		if a.ID == id {
			return a, true
		}
	}
	return backend.Article{}, false
}

// TypeName resolves a type label, or "" when unknown.
func (s Snapshot) TypeName(id int64) string {
	for _, t := range s.Types {
		if t.ID == id {
			return t.Nom
		}
	}
	return ""
}

// Supplier finds a supplier by ID.
func (s Snapshot) Supplier(id int64) (backend.Fournisseur, bool) {
	for _, f := range s.Suppliers {
		if f.ID == id {
			return f, true
		}
	}
	return backend.Fournisseur{}, false
}

// Client finds a client by ID.
func (s Snapshot) Client(id int64) (backend.Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return backend.Client{}, false
}
