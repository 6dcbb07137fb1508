package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Tijndh/Mallow/internal/domain"
)

//go:embed products.json
var productsJSON []byte

// Catalog is an immutable product table. It is safe for concurrent use.
type Catalog struct {
	products []domain.Product
	byID     map[string]int
}

func New(products []domain.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]domain.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}

	for _, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("product %q: empty id: %w", p.Name, domain.ErrInvalidArgument)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("product %s: negative price: %w", p.ID, domain.ErrInvalidArgument)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("product %s: duplicate id: %w", p.ID, domain.ErrInvalidArgument)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}

	return c, nil
}

// Parse builds a catalog from a JSON array of products.
func Parse(data []byte) (*Catalog, error) {
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return New(products)
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the shop's built-in catalog. It panics if the embedded
// product data is malformed.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(productsJSON)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded products: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// ListProducts returns the full catalog in load order.
func (c *Catalog) ListProducts() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) GetProduct(id string) (domain.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return c.products[i], nil
}
