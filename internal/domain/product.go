package domain

import (
	"github.com/shopspring/decimal"
)

// Currency is the store currency. All prices are in BRL.
const Currency = "BRL"

// Product is a read-only catalog entry.
type Product struct {
	ID          int             `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Images      []string        `json:"images,omitempty"`
	Details     Details         `json:"details,omitempty"`
}

// DisplayImage returns the image shown on product cards: Image when set,
// otherwise the first gallery image.
func (p Product) DisplayImage() string {
	if p.Image != "" {
		return p.Image
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// Details is an open attribute map (material, stone, sizes, ...). Only a few
// keys have meaning to the storefront; the rest is display data.
type Details map[string]any

// Attribute keys the storefront filters and validates on.
const (
	DetailMetal  = "metal"
	DetailStones = "stones"
	DetailSizes  = "tamanhos"
)

// Metal returns the filterable metal of the product, or "".
func (d Details) Metal() string {
	s, _ := d[DetailMetal].(string)
	return s
}

// Stones returns the filterable stones of the product.
func (d Details) Stones() []string {
	return d.strings(DetailStones)
}

// Sizes returns the sizes the product is offered in. Empty means one size.
func (d Details) Sizes() []string {
	return d.strings(DetailSizes)
}

func (d Details) strings(key string) []string {
	switch v := d[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

// ProductFinder resolves product ids against the catalog.
type ProductFinder interface {
	FindProduct(id int) (Product, bool)
}
