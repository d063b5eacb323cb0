package movement

import (
	"context"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
	"clinstock/internal/domain/location"
	"clinstock/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// searchCap bounds search responses. The repository fetches one extra
	// row so the caller can tell a full page from a truncated one.
	searchCap = 50
)

// Enriched is a journal row decorated with display identities. Enrichment
// is best-effort: a missing catalog entry leaves the field nil, it never
// fails the read.
type Enriched struct {
	Movement
	Product      *ProductInfo       `json:"product,omitempty"`
	User         *location.Identity `json:"user,omitempty"`
	FromLocation *location.Identity `json:"fromLocation,omitempty"`
	ToLocation   *location.Identity `json:"toLocation,omitempty"`
}

// Page is one page of the global movement listing.
type Page struct {
	Movements   []Enriched `json:"movements"`
	TotalCount  int64      `json:"totalCount"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
}

// SearchResult is a capped, unpaginated search response. Truncated is set
// when more rows matched than the cap allows.
type SearchResult struct {
	Movements []Enriched `json:"movements"`
	Truncated bool       `json:"truncated"`
}

// Query serves read-only views over the movement journal.
type Query struct {
	repo     Repository
	resolver *location.Resolver
	products ProductCatalog
}

func NewQuery(repo Repository, resolver *location.Resolver, products ProductCatalog) *Query {
	return &Query{repo: repo, resolver: resolver, products: products}
}

// List returns one page of all movements, newest first.
func (q *Query) List(ctx context.Context, page, limit int) (*Page, error) {
	page, limit = clampPage(page, limit)

	rows, total, err := q.repo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	return &Page{
		Movements:   q.enrich(ctx, rows),
		TotalCount:  total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}

// Search matches the term against reason and notes text and against
// catalog entries whose name matches, then unions the results.
func (q *Query) Search(ctx context.Context, term string) (*SearchResult, error) {
	if term == "" {
		return nil, apperror.NewValidation("search term is required")
	}

	locationIDs := q.resolver.SearchIDsByName(ctx, term)

	rows, err := q.repo.Search(ctx, term, locationIDs, searchCap+1)
	if err != nil {
		return nil, err
	}

	truncated := len(rows) > searchCap
	if truncated {
		rows = rows[:searchCap]
		logger.Debug(ctx, "search result truncated", "term", term, "cap", searchCap)
	}

	return &SearchResult{
		Movements: q.enrich(ctx, rows),
		Truncated: truncated,
	}, nil
}

// ListByProduct returns one page of a single product's history.
// Unknown products yield NotFound rather than an empty page.
func (q *Query) ListByProduct(ctx context.Context, productID id.ID, page, limit int) (*Page, error) {
	exists, err := q.products.Exists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NewNotFound("product", productID)
	}

	page, limit = clampPage(page, limit)

	rows, total, err := q.repo.ListByProduct(ctx, productID, page, limit)
	if err != nil {
		return nil, err
	}

	return &Page{
		Movements:   q.enrich(ctx, rows),
		TotalCount:  total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}

func (q *Query) enrich(ctx context.Context, rows []Movement) []Enriched {
	out := make([]Enriched, 0, len(rows))
	for i := range rows {
		m := rows[i]
		e := Enriched{Movement: m}

		if info, err := q.products.FindByID(ctx, m.ProductID); err == nil {
			e.Product = &info
		}
		e.User = q.resolver.ResolveDisplay(ctx, location.Reference{Kind: location.KindUser, ID: m.UserID})
		if ref := m.From(); !ref.IsZero() {
			e.FromLocation = q.resolver.ResolveDisplay(ctx, ref)
		}
		if ref := m.To(); !ref.IsZero() {
			e.ToLocation = q.resolver.ResolveDisplay(ctx, ref)
		}

		out = append(out, e)
	}
	return out
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total == 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return int(pages)
}
