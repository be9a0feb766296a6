package stock

import (
	"context"
	"sort"
	"sync"

	"github.com/openretail/stockcore/internal/domain"
)

// In-memory repository fakes backing the engine, calculator and compensator
// tests. They mirror the store's atomic-increment semantics without a
// database.

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	failWith error
}

func newFakeProductRepo(products ...*domain.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[int64]*domain.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) ApplySaleDelta(_ context.Context, id int64, qty int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p.Stock -= qty
	p.Sales += qty
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) ApplyRestoreDelta(_ context.Context, id int64, stockDelta, salesDelta int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p.Stock += stockDelta
	p.Sales -= salesDelta
	cp := *p
	return &cp, nil
}

type fakeUnitRepo struct {
	mu      sync.Mutex
	units   map[int64]*domain.ProductUnit
	syncErr error
}

func newFakeUnitRepo(units ...*domain.ProductUnit) *fakeUnitRepo {
	r := &fakeUnitRepo{units: make(map[int64]*domain.ProductUnit)}
	for _, u := range units {
		r.units[u.ID] = u
	}
	return r
}

func (r *fakeUnitRepo) GetByID(_ context.Context, id int64) (*domain.ProductUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return nil, ErrUnitNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUnitRepo) FindForProduct(_ context.Context, productID, unitID int64) (*domain.ProductUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.units {
		if u.ProductId != productID {
			continue
		}
		if unitID > 0 && u.ID == unitID {
			cp := *u
			return &cp, nil
		}
		if unitID <= 0 && u.IsDefault {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUnitNotFound
}

func (r *fakeUnitRepo) ListActiveByProduct(_ context.Context, productID int64) ([]domain.ProductUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProductUnit
	for _, u := range r.units {
		if u.ProductId == productID && u.IsActive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PackQty < out[j].PackQty })
	return out, nil
}

func (r *fakeUnitRepo) IncrementPendingSync(_ context.Context, id int64, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.syncErr != nil {
		return r.syncErr
	}
	u, ok := r.units[id]
	if !ok {
		return ErrUnitNotFound
	}
	u.PendingSyncQty += delta
	return nil
}

func (r *fakeUnitRepo) Save(_ context.Context, unit *domain.ProductUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if unit.IsDefault {
		for _, u := range r.units {
			if u.ProductId == unit.ProductId && u.ID != unit.ID {
				u.IsDefault = false
			}
		}
	}
	cp := *unit
	r.units[unit.ID] = &cp
	return nil
}

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements []domain.StockMovement
	appendErr error
}

func (r *fakeMovementRepo) Append(_ context.Context, m *domain.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeMovementRepo) List(_ context.Context, filter MovementFilter, page, pageSize int) ([]domain.StockMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StockMovement
	for _, m := range r.movements {
		if filter.ProductID > 0 && m.ProductId != filter.ProductID {
			continue
		}
		if filter.MovementType != "" && m.MovementType != filter.MovementType {
			continue
		}
		if filter.SyncStatus != "" && m.SyncStatus != filter.SyncStatus {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *fakeMovementRepo) byProduct(productID int64) []domain.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StockMovement
	for _, m := range r.movements {
		if m.ProductId == productID {
			out = append(out, m)
		}
	}
	return out
}

type fakeOrderRepo struct {
	lines map[int64][]domain.OrderLine
}

func (r *fakeOrderRepo) ListOpenLinesByProduct(_ context.Context, productID int64) ([]domain.OrderLine, error) {
	return r.lines[productID], nil
}

type fakeOperatorRepo struct {
	operators map[int64]*domain.SysOpr
	fallback  *domain.SysOpr
}

func (r *fakeOperatorRepo) Resolve(_ context.Context, explicitID int64) (*domain.SysOpr, error) {
	if explicitID > 0 {
		if opr, ok := r.operators[explicitID]; ok {
			return opr, nil
		}
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, ErrNoActingUser
}

type busRecord struct {
	topic string
	alert StockAlert
}

type fakeBus struct {
	mu      sync.Mutex
	records []busRecord
}

func (b *fakeBus) Publish(topic string, args ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, arg := range args {
		if alert, ok := arg.(StockAlert); ok {
			b.records = append(b.records, busRecord{topic: topic, alert: alert})
		}
	}
}

func (b *fakeBus) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, rec := range b.records {
		out = append(out, rec.topic)
	}
	return out
}

type loyaltyCall struct {
	customerID int64
	orderID    int64
	points     int64
}

type fakeLoyalty struct {
	restoreResult *LoyaltyResult
	restoreErr    error
	calls         []loyaltyCall
}

func (f *fakeLoyalty) Award(_ context.Context, customerID, orderID, amount int64) (*LoyaltyResult, error) {
	return &LoyaltyResult{Success: true, PointsRestored: amount}, nil
}

func (f *fakeLoyalty) Restore(_ context.Context, customerID, orderID, pointsUsed int64) (*LoyaltyResult, error) {
	f.calls = append(f.calls, loyaltyCall{customerID: customerID, orderID: orderID, points: pointsUsed})
	if f.restoreErr != nil {
		return nil, f.restoreErr
	}
	if f.restoreResult != nil {
		return f.restoreResult, nil
	}
	return &LoyaltyResult{Success: true, PointsRestored: pointsUsed}, nil
}
