package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// DefaultVariant is the label stored for a size or metal the shopper did not pick.
const DefaultVariant = "Padrão"

// CartLine is one product variant in the cart. Field names match the
// persisted snapshot layout.
type CartLine struct {
	VariantKey    string `json:"variantKey"`
	ProductID     int    `json:"productId"`
	SelectedSize  string `json:"selectedSize"`
	SelectedMetal string `json:"selectedMetal"`
	Quantity      int    `json:"quantity"`
}

// VariantKey builds the merge key "<productId>-<size>-<metal>". An unset size
// or metal (empty or DefaultVariant) contributes the empty string, so an
// explicit "Padrão" and an omitted value land on the same line.
func VariantKey(productID int, size, metal string) string {
	return strconv.Itoa(productID) + "-" + keyPart(size) + "-" + keyPart(metal)
}

func keyPart(v string) string {
	if v == DefaultVariant {
		return ""
	}
	return v
}

// NormalizeVariant returns DefaultVariant for an empty selection.
func NormalizeVariant(v string) string {
	if v == "" {
		return DefaultVariant
	}
	return v
}

// NewCartLine builds a line with defaults applied and the key computed.
func NewCartLine(productID int, size, metal string, quantity int) CartLine {
	size, metal = NormalizeVariant(size), NormalizeVariant(metal)
	return CartLine{
		VariantKey:    VariantKey(productID, size, metal),
		ProductID:     productID,
		SelectedSize:  size,
		SelectedMetal: metal,
		Quantity:      quantity,
	}
}

// Cart is the ordered list of lines of one session. Insertion order is kept.
type Cart struct {
	Lines []CartLine
}

// FindLine returns the index of the line with the given key, or -1.
func (c *Cart) FindLine(variantKey string) int {
	for i := range c.Lines {
		if c.Lines[i].VariantKey == variantKey {
			return i
		}
	}
	return -1
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// Total sums price × quantity in exact decimal arithmetic. Lines whose
// product is no longer in the catalog contribute nothing.
func (c *Cart) Total(finder ProductFinder) decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		p, ok := finder.FindProduct(line.ProductID)
		if !ok {
			continue
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// Snapshot returns a copy of the lines, never nil.
func (c *Cart) Snapshot() []CartLine {
	out := make([]CartLine, len(c.Lines))
	copy(out, c.Lines)
	return out
}

// CartLineView is a cart line resolved against the catalog for display.
type CartLineView struct {
	CartLine
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartView is what the renderer shows for the cart.
type CartView struct {
	Lines     []CartLineView  `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
	Currency  string          `json:"currency"`
}
