// Package catalog holds the read-only product list of the storefront.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/prbretas/JEWELRY/internal/domain"
	"github.com/prbretas/JEWELRY/pkg/slug"
)

//go:embed catalog.yaml
var embedded []byte

// ErrInvalidCatalog is returned when a catalog document fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

type document struct {
	Products []productDoc `yaml:"products"`
}

type productDoc struct {
	ID          int            `yaml:"id"`
	Slug        string         `yaml:"slug"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Category    string         `yaml:"category"`
	Price       string         `yaml:"price"`
	Image       string         `yaml:"image"`
	Images      []string       `yaml:"images"`
	Details     map[string]any `yaml:"details"`
}

// Catalog is an immutable, ordered product list indexed by id. It is safe
// for concurrent use.
type Catalog struct {
	products []domain.Product
	byID     map[int]int
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Load reads a catalog from a YAML file. An empty path yields the default
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	products := make([]domain.Product, 0, len(doc.Products))
	for i, d := range doc.Products {
		price, err := decimal.NewFromString(strings.TrimSpace(d.Price))
		if err != nil {
			return nil, fmt.Errorf("%w: product #%d (%q): price %q: %v", ErrInvalidCatalog, i, d.Name, d.Price, err)
		}
		p := domain.Product{
			ID:          d.ID,
			Slug:        d.Slug,
			Name:        d.Name,
			Description: d.Description,
			Category:    d.Category,
			Price:       price,
			Image:       d.Image,
			Images:      d.Images,
			Details:     domain.Details(d.Details),
		}
		if p.Slug == "" {
			p.Slug = slug.Generate(p.Name)
		}
		products = append(products, p)
	}
	return New(products)
}

// New validates products and builds a catalog preserving their order.
func New(products []domain.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]domain.Product, 0, len(products)),
		byID:     make(map[int]int, len(products)),
	}
	for _, p := range products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("%w: product %q: id must be positive", ErrInvalidCatalog, p.Name)
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("%w: product %d: name is required", ErrInvalidCatalog, p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("%w: product %d: price must not be negative", ErrInvalidCatalog, p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product id %d", ErrInvalidCatalog, p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// FindProduct returns the product with the given id.
func (c *Catalog) FindProduct(id int) (domain.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// List returns all products in catalog order.
func (c *Catalog) List() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}
