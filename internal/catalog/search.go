package catalog

import (
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/prbretas/JEWELRY/internal/domain"
	"github.com/prbretas/JEWELRY/pkg/pagination"
)

// Sort options for search results.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

// IsValidSort checks whether the given sort string is a valid sort option.
// The empty string means relevance.
func IsValidSort(s string) bool {
	switch s {
	case "", SortRelevance, SortPriceAsc, SortPriceDesc, SortName:
		return true
	}
	return false
}

// Query holds the storefront filter panel state.
type Query struct {
	Text     string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Metals   []string
	Stones   []string
	Category string
	Sort     string
	Page     int
	PerPage  int
}

// Search filters, sorts and paginates the catalog.
func (c *Catalog) Search(q Query) pagination.Result[domain.Product] {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	matched := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if matches(p, q, text) {
			matched = append(matched, p)
		}
	}

	sortProducts(matched, q.Sort)

	params := pagination.New(q.Page, q.PerPage)
	start, end := params.Window(len(matched))
	return pagination.NewResult(matched[start:end], len(matched), params)
}

func matches(p domain.Product, q Query, text string) bool {
	if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
		return false
	}

	if len(q.Metals) > 0 && !slices.Contains(q.Metals, p.Details.Metal()) {
		return false
	}

	if len(q.Stones) > 0 {
		stones := p.Details.Stones()
		if !slices.ContainsFunc(q.Stones, func(s string) bool { return slices.Contains(stones, s) }) {
			return false
		}
	}

	if q.Category != "" && p.Category != q.Category {
		return false
	}

	if text != "" {
		if !strings.Contains(strings.ToLower(p.Name), text) &&
			!strings.Contains(strings.ToLower(p.Description), text) {
			return false
		}
	}

	return true
}

func sortProducts(products []domain.Product, sortBy string) {
	switch sortBy {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case SortName:
		sort.SliceStable(products, func(i, j int) bool {
			return strings.ToLower(products[i].Name) < strings.ToLower(products[j].Name)
		})
	default:
		// relevance: catalog order
	}
}
