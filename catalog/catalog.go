// Package catalog loads product candidate sets from JSON.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/poiesic/prodrank/core"
)

// ErrDuplicateProduct indicates two products in one catalog share an ID.
var ErrDuplicateProduct = errors.New("duplicate product id")

//go:embed products.json
var sampleJSON []byte

var sample = sync.OnceValues(func() ([]core.Product, error) {
	return Parse(sampleJSON)
})

// Sample returns the built-in storefront catalog. Each call returns a new
// slice the caller may modify.
func Sample() []core.Product {
	products, err := sample()
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded sample is invalid: %v", err))
	}
	out := make([]core.Product, len(products))
	copy(out, products)
	return out
}

// Parse decodes a JSON array of products. Missing numeric fields default to
// 0, missing flags to false and a missing description to "". Fields the
// Product type does not know, such as price or image, are ignored. Every
// product must pass core.ValidateProduct and IDs must be unique.
func Parse(data []byte) ([]core.Product, error) {
	var products []core.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidProduct, err)
	}

	seen := make(map[int64]struct{}, len(products))
	for i := range products {
		if err := core.ValidateProduct(&products[i]); err != nil {
			return nil, err
		}
		if _, dup := seen[products[i].ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateProduct, products[i].ID)
		}
		seen[products[i].ID] = struct{}{}
	}
	if products == nil {
		products = []core.Product{}
	}
	return products, nil
}

// LoadFile reads and parses the catalog at path.
func LoadFile(path string) ([]core.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	products, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return products, nil
}

// Load returns the catalog at path, or Sample when path is empty.
func Load(path string) ([]core.Product, error) {
	if path == "" {
		return Sample(), nil
	}
	return LoadFile(path)
}
