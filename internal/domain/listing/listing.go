// Package listing holds the pagination and filtering contract shared by every
// back-office list endpoint.
package listing

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filter selects a page of entities. Empty Search, Status and Category mean
// no filtering on that criterion.
type Filter struct {
	Page     int
	Limit    int
	Search   string
	Status   string
	Category string
}

// Normalize applies defaults and clamps the limit to MaxLimit.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Status = strings.TrimSpace(f.Status)
	f.Category = strings.TrimSpace(f.Category)
	return f
}

// Offset returns the number of rows skipped before the page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// LikeEscape is the escape character of SearchPattern. Queries pair the
// pattern with ESCAPE '!'.
const LikeEscape = "!"

var likeEscaper = strings.NewReplacer(LikeEscape, LikeEscape+LikeEscape, "%", LikeEscape+"%", "_", LikeEscape+"_")

// SearchPattern returns the lowercase LIKE pattern for Search. The LIKE
// wildcards in Search match literally.
func (f Filter) SearchPattern() string {
	return "%" + likeEscaper.Replace(strings.ToLower(f.Search)) + "%"
}

// FromQuery reads page, limit, search, status and category from URL query
// values. Unparseable numbers fall back to defaults.
func FromQuery(q url.Values) Filter {
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return Filter{
		Page:     page,
		Limit:    limit,
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
	}.Normalize()
}

// Page is one page of results.
type Page[T any] struct {
	Items       []T
	Total       int
	TotalPages  int
	CurrentPage int
}

// NewPage builds a Page from the items of one page and the total row count.
func NewPage[T any](items []T, total int, f Filter) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if f.Limit > 0 {
		pages = (total + f.Limit - 1) / f.Limit
	}
	return Page[T]{
		Items:       items,
		Total:       total,
		TotalPages:  pages,
		CurrentPage: f.Page,
	}
}

// Envelope renders the page under the given resource key, e.g.
// {"courses": [...], "total": 12, "totalPages": 2, "currentPage": 1}.
func (p Page[T]) Envelope(key string) map[string]any {
	return map[string]any{
		key:           p.Items,
		"total":       p.Total,
		"totalPages":  p.TotalPages,
		"currentPage": p.CurrentPage,
	}
}
