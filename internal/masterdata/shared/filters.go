// Package shared holds list and form helpers common to master data pages.
package shared

import (
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	appshared "github.com/soleilcom/gestion/internal/shared"
)

const (
	// DefaultPage is the first page.
	DefaultPage = 1
	// DefaultLimit is the number of rows on a master data page.
	DefaultLimit = 6
)

// ListFilters represents standard list page filters
type ListFilters struct {
	Page   int
	Limit  int
	Search string
	// Extra holds page specific parameters kept across pages, such as a tab.
	Extra url.Values
}

// ParseListFilters reads page and search from the query string.
func ParseListFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = DefaultPage
	}
	return ListFilters{Page: page, Limit: DefaultLimit, Search: strings.TrimSpace(q.Get("search"))}
}

// Query rebuilds the query string for page, keeping the search term.
func (f ListFilters) Query(page int) string {
	v := make([]string, 0, 2)
	if f.Search != "" {
		v = append(v, "search="+url.QueryEscape(f.Search))
	}
	for _, k := range slices.Sorted(maps.Keys(f.Extra)) {
		if val := f.Extra.Get(k); val != "" {
			v = append(v, url.QueryEscape(k)+"="+url.QueryEscape(val))
		}
	}
	v = append(v, "page="+strconv.Itoa(page))
	return "?" + strings.Join(v, "&")
}

// Matches reports whether any field contains the search term, ignoring case.
// An empty term matches everything.
func Matches(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// PageView is what the pagination partial renders.
type PageView struct {
	Filters ListFilters
	appshared.Pagination
}

// Paginate slices items for f.Page and describes the result.
func Paginate[T any](items []T, f ListFilters) ([]T, PageView) {
	page, p := appshared.Paginate(items, f.Page, f.Limit)
	return page, PageView{Filters: f, Pagination: p}
}

// PrevQuery is the query string of the previous page.
func (v PageView) PrevQuery() string { return v.Filters.Query(v.PrevPage()) }

// NextQuery is the query string of the next page.
func (v PageView) NextQuery() string { return v.Filters.Query(v.NextPage()) }
