package stock

import (
	"testing"

	"github.com/openretail/stockcore/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPackQtyOf(t *testing.T) {
	tests := []struct {
		name     string
		unit     *domain.ProductUnit
		expected float64
	}{
		{"nil unit", nil, 1},
		{"regular case", &domain.ProductUnit{PackQty: 24}, 24},
		{"fractional pack", &domain.ProductUnit{PackQty: 0.5}, 0.5},
		{"zero pack qty", &domain.ProductUnit{PackQty: 0}, 1},
		{"negative pack qty", &domain.ProductUnit{PackQty: -3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PackQtyOf(tt.unit))
		})
	}
}

func TestPricePerBaseUnit(t *testing.T) {
	assert.Equal(t, 0.0, PricePerBaseUnit(nil))

	unit := &domain.ProductUnit{PackQty: 6, Price: 12}
	assert.Equal(t, 2.0, PricePerBaseUnit(unit))

	// A non-positive packQty is a data error: return the raw price rather
	// than dividing by zero.
	broken := &domain.ProductUnit{PackQty: 0, Price: 12}
	assert.Equal(t, 12.0, PricePerBaseUnit(broken))
}

func TestBaseUnits(t *testing.T) {
	assert.Equal(t, int64(12), BaseUnits(2, &domain.ProductUnit{PackQty: 6}))
	assert.Equal(t, int64(5), BaseUnits(5, nil))
	assert.Equal(t, int64(3), BaseUnits(7, &domain.ProductUnit{PackQty: 0.5}))
}

func TestUnitCache(t *testing.T) {
	cache := NewUnitCache()

	_, ok := cache.Get(1, 2)
	assert.False(t, ok)

	unit := &domain.ProductUnit{ID: 2, ProductId: 1, PackQty: 6}
	cache.Put(1, 2, unit)

	got, ok := cache.Get(1, 2)
	assert.True(t, ok)
	assert.Equal(t, unit, got)

	// Same unit id under another product must not collide.
	_, ok = cache.Get(9, 2)
	assert.False(t, ok)

	cache.Reset()
	_, ok = cache.Get(1, 2)
	assert.False(t, ok)
}
