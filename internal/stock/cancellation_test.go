package stock

import (
	"context"
	"testing"

	"github.com/openretail/stockcore/internal/domain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCompensator(products *fakeProductRepo, loyalty LoyaltyService, wait bool) (*Compensator, *fakeMovementRepo) {
	engine, movements, _ := newTestEngine(products, newFakeUnitRepo())
	return NewCompensator(engine, loyalty, wait), movements
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	products := newFakeProductRepo(&domain.Product{ID: 1, Stock: 88, Sales: 12})
	comp, movements := newTestCompensator(products, &fakeLoyalty{}, true)

	order := &domain.Order{
		ID:         500,
		CustomerId: 9,
		Status:     domain.OrderCancelled,
		Lines: []domain.OrderLine{
			{ID: 1, OrderId: 500, ProductId: 1, Quantity: 12},
		},
	}

	result, err := comp.CancelOrder(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, result.StockRestored)

	p, _ := products.GetByID(context.Background(), 1)
	assert.Equal(t, int64(100), p.Stock)
	assert.Equal(t, int64(0), p.Sales)
	assert.Len(t, movements.byProduct(1), 1)
}

func TestCancelOrder_LoyaltyContractInvocation(t *testing.T) {
	products := newFakeProductRepo(&domain.Product{ID: 1, Stock: 88})
	loyalty := &fakeLoyalty{}
	comp, _ := newTestCompensator(products, loyalty, true)

	order := &domain.Order{
		ID:                500,
		CustomerId:        9,
		LoyaltyPointsUsed: 50,
		Lines: []domain.OrderLine{
			{ID: 1, OrderId: 500, ProductId: 1, Quantity: 12},
		},
	}

	result, err := comp.CancelOrder(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, result.PointsRestored)

	require.Len(t, loyalty.calls, 1)
	assert.Equal(t, loyaltyCall{customerID: 9, orderID: 500, points: 50}, loyalty.calls[0])
}

func TestCancelOrder_LoyaltyFailureDoesNotFailCancellation(t *testing.T) {
	products := newFakeProductRepo(&domain.Product{ID: 1, Stock: 88})
	loyalty := &fakeLoyalty{restoreErr: errors.New("loyalty backend down")}
	comp, _ := newTestCompensator(products, loyalty, true)

	order := &domain.Order{
		ID:                500,
		CustomerId:        9,
		LoyaltyPointsUsed: 50,
		Lines: []domain.OrderLine{
			{ID: 1, OrderId: 500, ProductId: 1, Quantity: 12},
		},
	}

	result, err := comp.CancelOrder(context.Background(), order)
	require.NoError(t, err, "loyalty failures are captured, never raised")
	assert.True(t, result.StockRestored)
	assert.False(t, result.PointsRestored)
	assert.Contains(t, result.PointsError, "loyalty backend down")
}

func TestCancelOrder_LoyaltyRejection(t *testing.T) {
	products := newFakeProductRepo(&domain.Product{ID: 1, Stock: 88})
	loyalty := &fakeLoyalty{restoreResult: &LoyaltyResult{Success: false, Error: "points already restored"}}
	comp, _ := newTestCompensator(products, loyalty, true)

	order := &domain.Order{ID: 500, CustomerId: 9, LoyaltyPointsUsed: 50}

	result, err := comp.CancelOrder(context.Background(), order)
	require.NoError(t, err)
	assert.False(t, result.PointsRestored)
	assert.Equal(t, "points already restored", result.PointsError)
}

func TestCancelOrder_NoLoyaltyCallWithoutPoints(t *testing.T) {
	products := newFakeProductRepo(&domain.Product{ID: 1, Stock: 88})
	loyalty := &fakeLoyalty{}
	comp, _ := newTestCompensator(products, loyalty, true)

	order := &domain.Order{
		ID: 500,
		Lines: []domain.OrderLine{
			{ID: 1, OrderId: 500, ProductId: 1, Quantity: 12},
		},
	}

	_, err := comp.CancelOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Empty(t, loyalty.calls)
}

func TestCancelOrder_EmptyCartStillRestoresPoints(t *testing.T) {
	comp, _ := newTestCompensator(newFakeProductRepo(), &fakeLoyalty{}, true)

	order := &domain.Order{ID: 500, CustomerId: 9, LoyaltyPointsUsed: 25}

	result, err := comp.CancelOrder(context.Background(), order)
	require.NoError(t, err)
	assert.False(t, result.StockRestored, "nothing to restore without cart lines")
	assert.True(t, result.PointsRestored)
}

func TestCancelOrder_MalformedOrder(t *testing.T) {
	comp, _ := newTestCompensator(newFakeProductRepo(), &fakeLoyalty{}, true)

	_, err := comp.CancelOrder(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMalformedOrder)

	_, err = comp.CancelOrder(context.Background(), &domain.Order{})
	assert.ErrorIs(t, err, ErrMalformedOrder)
}

func TestCancelOrder_ComboOrderRestoresConstituents(t *testing.T) {
	products := newFakeProductRepo(
		&domain.Product{ID: 101, Stock: 10, Sales: 20},
		&domain.Product{ID: 102, Stock: 5, Sales: 30},
	)
	comp, _ := newTestCompensator(products, &fakeLoyalty{}, true)

	order := &domain.Order{
		ID: 500,
		Lines: []domain.OrderLine{
			{
				ID:               1,
				OrderId:          500,
				ProductId:        900,
				Quantity:         2,
				ComboRef:         "Family Pack",
				SelectedProducts: `{"101": 2, "102": 3}`,
			},
		},
	}

	result, err := comp.CancelOrder(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, result.StockRestored)

	a, _ := products.GetByID(context.Background(), 101)
	assert.Equal(t, int64(14), a.Stock)
	b, _ := products.GetByID(context.Background(), 102)
	assert.Equal(t, int64(11), b.Stock)
}

func TestCancelOrder_DetachedRestore(t *testing.T) {
	products := newFakeProductRepo(&domain.Product{ID: 1, Stock: 88, Sales: 12})
	engine, _, _ := newTestEngine(products, newFakeUnitRepo())
	comp := NewCompensator(engine, &fakeLoyalty{}, false)

	order := &domain.Order{
		ID: 500,
		Lines: []domain.OrderLine{
			{ID: 1, OrderId: 500, ProductId: 1, Quantity: 12},
		},
	}

	result, err := comp.CancelOrder(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, result.StockRestored, "restored means initiated, not confirmed")
}
