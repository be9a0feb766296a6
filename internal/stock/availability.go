package stock

import (
	"context"
	"math"

	"github.com/openretail/stockcore/internal/domain"
	"go.uber.org/zap"
)

// Availability is the reservation-aware sellable view of one product.
type Availability struct {
	ProductId int64               `json:"product_id,string"`
	Stock     int64               `json:"stock"`
	Reserved  float64             `json:"reserved"`
	Available float64             `json:"available"`
	Variants  []VariantAvailability `json:"variants"`
}

// VariantAvailability is the per-packaging-variant sellable count.
type VariantAvailability struct {
	UnitId      int64   `json:"unit_id,string"`
	Name        string  `json:"name"`
	PackQty     float64 `json:"pack_qty"`
	Price       float64 `json:"price"`
	IsDefault   bool    `json:"is_default"`
	Count       int64   `json:"count"`
	IsAvailable bool    `json:"is_available"`
}

// Calculator computes sellable availability. It is strictly read-only.
type Calculator struct {
	products ProductRepository
	units    UnitRepository
	orders   OrderRepository
	cache    *UnitCache
}

func NewCalculator(products ProductRepository, units UnitRepository, orders OrderRepository, cache *UnitCache) *Calculator {
	if cache == nil {
		cache = NewUnitCache()
	}
	return &Calculator{products: products, units: units, orders: orders, cache: cache}
}

// Availability returns stock, reserved and sellable quantities for a product.
// Reserved sums quantity × packQty over lines of open orders; unresolvable
// units count with packQty 1. Available floors at zero even when raw stock
// has gone negative.
func (c *Calculator) Availability(ctx context.Context, productID int64) (*Availability, error) {
	product, err := c.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	openLines, err := c.orders.ListOpenLinesByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var reserved float64
	for _, line := range openLines {
		packQty := 1.0
		if line.UnitId > 0 {
			if unit, err := c.resolveUnit(ctx, productID, line.UnitId); err == nil {
				packQty = PackQtyOf(unit)
			} else {
				zap.L().Debug("reservation unit unresolved, assuming base unit",
					zap.String("namespace", "stock"),
					zap.Int64("product_id", productID),
					zap.Int64("unit_id", line.UnitId),
				)
			}
		}
		reserved += float64(line.Quantity) * packQty
	}

	available := float64(product.Stock) - reserved
	if available < 0 {
		available = 0
	}

	result := &Availability{
		ProductId: productID,
		Stock:     product.Stock,
		Reserved:  reserved,
		Available: available,
	}

	units, err := c.units.ListActiveByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	for i := range units {
		unit := &units[i]
		count := int64(math.Floor(available / PackQtyOf(unit)))
		result.Variants = append(result.Variants, VariantAvailability{
			UnitId:      unit.ID,
			Name:        unit.Name,
			PackQty:     unit.PackQty,
			Price:       unit.Price,
			IsDefault:   unit.IsDefault,
			Count:       count,
			IsAvailable: count > 0,
		})
	}
	return result, nil
}

func (c *Calculator) resolveUnit(ctx context.Context, productID, unitID int64) (*domain.ProductUnit, error) {
	if unit, ok := c.cache.Get(productID, unitID); ok {
		return unit, nil
	}
	unit, err := c.units.FindForProduct(ctx, productID, unitID)
	if err != nil {
		return nil, err
	}
	c.cache.Put(productID, unitID, unit)
	return unit, nil
}
