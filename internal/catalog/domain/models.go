package domain

import (
	"context"
	"errors"
)

// ErrCatalogLoad marks a missing or malformed catalog. Callers treat it as fatal.
var ErrCatalogLoad = errors.New("catalog_load_failed")

type PriceEntry struct {
	Name      string  `json:"name" yaml:"name"`
	ListPrice float64 `json:"list_price" yaml:"list_price"`
}

type BenefitEntry struct {
	Bullets []string `json:"bullets" yaml:"bullets"`
}

type Plan struct {
	Name     string   `json:"name" yaml:"name"`
	PerSeat  float64  `json:"per_seat" yaml:"per_seat"`
	Includes []string `json:"includes" yaml:"includes"`
}

// PriceCatalog maps product key to list price.
type PriceCatalog map[string]PriceEntry

// BenefitCatalog maps product key to its descriptive bullets.
type BenefitCatalog map[string]BenefitEntry

// PlanRules maps plan name to its rule.
type PlanRules map[string]Plan

// Catalogs is the read-only view shared by every report for the process lifetime.
type Catalogs struct {
	Prices   PriceCatalog
	Benefits BenefitCatalog
	Plans    PlanRules
}

func (c *Catalogs) ListPrice(productKey string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	entry, ok := c.Prices[productKey]
	return entry.ListPrice, ok
}

func (c *Catalogs) BenefitsFor(productKey string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	entry, ok := c.Benefits[productKey]
	return entry.Bullets, ok
}

func (p Plan) IncludesProduct(productKey string) bool {
	for _, key := range p.Includes {
		if key == productKey {
			return true
		}
	}
	return false
}

// Store loads catalogs once and returns the cached result afterwards.
type Store interface {
	Load(ctx context.Context) (*Catalogs, error)
}
