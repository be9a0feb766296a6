package stock

import (
	"fmt"
	"sync"

	"github.com/openretail/stockcore/internal/domain"
)

// PackQtyOf returns the multiplier converting variant units sold into base
// units consumed. A nil unit or a non-positive pack quantity yields 1, the
// base-unit identity.
func PackQtyOf(unit *domain.ProductUnit) float64 {
	if unit == nil || unit.PackQty <= 0 {
		return 1
	}
	return unit.PackQty
}

// PricePerBaseUnit normalizes a variant price to one base unit. A
// non-positive PackQty is a data error; the raw price is returned rather than
// dividing by zero.
func PricePerBaseUnit(unit *domain.ProductUnit) float64 {
	if unit == nil {
		return 0
	}
	if unit.PackQty <= 0 {
		return unit.Price
	}
	return unit.Price / unit.PackQty
}

// BaseUnits converts a variant-unit quantity to base units, truncating the
// rational product toward zero.
func BaseUnits(quantity int64, unit *domain.ProductUnit) int64 {
	return int64(float64(quantity) * PackQtyOf(unit))
}

// UnitCache is an explicitly scoped cache of resolved packaging units keyed
// by (product, unit). It is a convenience, not a correctness requirement;
// construct one per engine and Reset it between tests.
type UnitCache struct {
	mu    sync.RWMutex
	units map[string]*domain.ProductUnit
}

func NewUnitCache() *UnitCache {
	return &UnitCache{units: make(map[string]*domain.ProductUnit)}
}

func unitCacheKey(productID, unitID int64) string {
	return fmt.Sprintf("%d:%d", productID, unitID)
}

func (c *UnitCache) Get(productID, unitID int64) (*domain.ProductUnit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.units[unitCacheKey(productID, unitID)]
	return u, ok
}

func (c *UnitCache) Put(productID, unitID int64, unit *domain.ProductUnit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.units[unitCacheKey(productID, unitID)] = unit
}

func (c *UnitCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.units = make(map[string]*domain.ProductUnit)
}
