package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/prbretas/JEWELRY/internal/catalog"
	"github.com/prbretas/JEWELRY/internal/domain"
	apperrors "github.com/prbretas/JEWELRY/pkg/errors"
	"github.com/prbretas/JEWELRY/pkg/httputil"
	"github.com/prbretas/JEWELRY/pkg/pagination"
)

// ProductHandler serves the read-only catalog.
type ProductHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(c *catalog.Catalog, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: c, logger: logger}
}

// ListProducts handles GET /api/v1/products
//
// Query parameters: q, min_price, max_price, metal (repeatable or comma
// separated), stone (same), category, sort, page, per_page.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query, err := parseSearchQuery(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.catalog.Search(query))
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, found := h.catalog.FindProduct(id)
	if !found {
		httputil.WriteError(w, r, domain.ProductNotFound(id), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

func parseSearchQuery(r *http.Request) (catalog.Query, error) {
	v := r.URL.Query()
	params := pagination.FromRequest(r)

	q := catalog.Query{
		Text:     v.Get("q"),
		Metals:   listParam(v["metal"]),
		Stones:   listParam(v["stone"]),
		Category: v.Get("category"),
		Sort:     v.Get("sort"),
		Page:     params.Page,
		PerPage:  params.PerPage,
	}

	if !catalog.IsValidSort(q.Sort) {
		return q, apperrors.InvalidInput("invalid sort: " + q.Sort)
	}

	var err error
	if q.MinPrice, err = priceParam(v.Get("min_price"), "min_price"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = priceParam(v.Get("max_price"), "max_price"); err != nil {
		return q, err
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return q, apperrors.InvalidInput("min_price must not exceed max_price")
	}
	return q, nil
}

func priceParam(raw, name string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, apperrors.InvalidInput("invalid " + name + ": " + raw)
	}
	return &d, nil
}

func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
