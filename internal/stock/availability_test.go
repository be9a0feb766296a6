package stock

import (
	"context"
	"testing"

	"github.com/openretail/stockcore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalculator(products *fakeProductRepo, units *fakeUnitRepo, orders *fakeOrderRepo) *Calculator {
	if orders == nil {
		orders = &fakeOrderRepo{}
	}
	return NewCalculator(products, units, orders, NewUnitCache())
}

func TestAvailability_NoReservations(t *testing.T) {
	products := newFakeProductRepo(&domain.Product{ID: 1, Stock: 100})
	calc := newTestCalculator(products, newFakeUnitRepo(), nil)

	av, err := calc.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), av.Stock)
	assert.Equal(t, 0.0, av.Reserved)
	assert.Equal(t, 100.0, av.Available)
}

func TestAvailability_ReservedSubtracted(t *testing.T) {
	products := newFakeProductRepo(&domain.Product{ID: 1, Stock: 100})
	units := newFakeUnitRepo(
		&domain.ProductUnit{ID: 11, ProductId: 1, Name: "dozen", PackQty: 12, IsActive: true},
	)
	orders := &fakeOrderRepo{lines: map[int64][]domain.OrderLine{
		1: {
			{OrderId: 500, ProductId: 1, Quantity: 2, UnitId: 11}, // 2 dozen = 24
			{OrderId: 501, ProductId: 1, Quantity: 5},             // unit unspecified, packQty 1
		},
	}}
	calc := newTestCalculator(products, units, orders)

	av, err := calc.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 29.0, av.Reserved)
	assert.Equal(t, 71.0, av.Available)
}

func TestAvailability_UnresolvableUnitCountsAsBase(t *testing.T) {
	products := newFakeProductRepo(&domain.Product{ID: 1, Stock: 50})
	orders := &fakeOrderRepo{lines: map[int64][]domain.OrderLine{
		1: {{OrderId: 500, ProductId: 1, Quantity: 3, UnitId: 999}},
	}}
	calc := newTestCalculator(products, newFakeUnitRepo(), orders)

	av, err := calc.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, av.Reserved)
	assert.Equal(t, 47.0, av.Available)
}

func TestAvailability_FloorsAtZero(t *testing.T) {
	tests := []struct {
		name     string
		stock    int64
		reserved int64
	}{
		{"reserved exceeds stock", 10, 15},
		{"negative raw stock", -5, 0},
		{"negative stock with reservations", -5, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := newFakeProductRepo(&domain.Product{ID: 1, Stock: tt.stock})
			orders := &fakeOrderRepo{lines: map[int64][]domain.OrderLine{}}
			if tt.reserved > 0 {
				orders.lines[1] = []domain.OrderLine{{OrderId: 500, ProductId: 1, Quantity: tt.reserved}}
			}
			calc := newTestCalculator(products, newFakeUnitRepo(), orders)

			av, err := calc.Availability(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.stock, av.Stock, "raw stock is reported as-is, never clamped")
			assert.Equal(t, 0.0, av.Available)
		})
	}
}

func TestAvailability_PerVariantCounts(t *testing.T) {
	products := newFakeProductRepo(&domain.Product{ID: 1, Stock: 25})
	units := newFakeUnitRepo(
		&domain.ProductUnit{ID: 10, ProductId: 1, Name: "piece", PackQty: 1, IsDefault: true, IsActive: true},
		&domain.ProductUnit{ID: 11, ProductId: 1, Name: "six-pack", PackQty: 6, IsActive: true},
		&domain.ProductUnit{ID: 12, ProductId: 1, Name: "case", PackQty: 24, IsActive: true},
		&domain.ProductUnit{ID: 13, ProductId: 1, Name: "pallet", PackQty: 240, IsActive: true},
		&domain.ProductUnit{ID: 14, ProductId: 1, Name: "legacy", PackQty: 3, IsActive: false},
	)
	orders := &fakeOrderRepo{lines: map[int64][]domain.OrderLine{
		1: {{OrderId: 500, ProductId: 1, Quantity: 1}},
	}}
	calc := newTestCalculator(products, units, orders)

	av, err := calc.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 24.0, av.Available)

	require.Len(t, av.Variants, 4, "inactive variants are excluded")
	byName := map[string]VariantAvailability{}
	for _, v := range av.Variants {
		byName[v.Name] = v
	}
	assert.Equal(t, int64(24), byName["piece"].Count)
	assert.Equal(t, int64(4), byName["six-pack"].Count)
	assert.Equal(t, int64(1), byName["case"].Count)
	assert.Equal(t, int64(0), byName["pallet"].Count)
	assert.True(t, byName["case"].IsAvailable)
	assert.False(t, byName["pallet"].IsAvailable)
}

func TestAvailability_UnknownProduct(t *testing.T) {
	calc := newTestCalculator(newFakeProductRepo(), newFakeUnitRepo(), nil)
	_, err := calc.Availability(context.Background(), 404)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAvailability_IsReadOnly(t *testing.T) {
	products := newFakeProductRepo(&domain.Product{ID: 1, Stock: 100, Sales: 7})
	orders := &fakeOrderRepo{lines: map[int64][]domain.OrderLine{
		1: {{OrderId: 500, ProductId: 1, Quantity: 30}},
	}}
	calc := newTestCalculator(products, newFakeUnitRepo(), orders)

	_, err := calc.Availability(context.Background(), 1)
	require.NoError(t, err)

	p, err := products.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.Stock)
	assert.Equal(t, int64(7), p.Sales)
}
