package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prbretas/JEWELRY/internal/domain"
)

func TestDefault_LoadsEmbeddedCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.Equal(t, 8, c.Len())

	p, ok := c.FindProduct(1)
	require.True(t, ok)
	assert.Equal(t, "Anel de Diamante Solitário", p.Name)
	assert.Equal(t, "anel-de-diamante-solitario", p.Slug)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("5999.99")))
	assert.Equal(t, "assets/images/anel-diamante.jpg", p.DisplayImage())
	assert.Len(t, p.Images, 3)
	assert.Equal(t, "gold", p.Details.Metal())
	assert.Equal(t, []string{"diamond"}, p.Details.Stones())
	assert.Equal(t, []string{"14", "15", "16", "17", "18", "19"}, p.Details.Sizes())
	assert.Equal(t, "VS1", p.Details["pureza"])
}

func TestFindProduct_Missing(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, ok := c.FindProduct(99999)
	assert.False(t, ok)
}

func TestList_ReturnsCopyInOrder(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	list := c.List()
	require.Len(t, list, c.Len())
	for i, p := range list {
		assert.Equal(t, i+1, p.ID)
	}

	list[0].Name = "changed"
	p, _ := c.FindProduct(1)
	assert.NotEqual(t, "changed", p.Name)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := []byte(`products:
  - id: 10
    name: Tornozeleira
    price: "89.90"
`)
	require.NoError(t, os.WriteFile(path, doc, 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	p, ok := c.FindProduct(10)
	require.True(t, ok)
	assert.Equal(t, "tornozeleira", p.Slug)
	assert.Equal(t, "89.9", p.Price.String())
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, c.Len())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"duplicate id", "products:\n  - {id: 1, name: A, price: \"1\"}\n  - {id: 1, name: B, price: \"2\"}\n"},
		{"zero id", "products:\n  - {id: 0, name: A, price: \"1\"}\n"},
		{"negative price", "products:\n  - {id: 1, name: A, price: \"-1\"}\n"},
		{"missing name", "products:\n  - {id: 1, price: \"1\"}\n"},
		{"bad price", "products:\n  - {id: 1, name: A, price: abc}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog))
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("products: [unclosed"))
	assert.Error(t, err)
}

func TestNew_KeepsExplicitSlug(t *testing.T) {
	c, err := New([]domain.Product{{ID: 3, Name: "X", Slug: "custom"}})
	require.NoError(t, err)

	p, _ := c.FindProduct(3)
	assert.Equal(t, "custom", p.Slug)
}
