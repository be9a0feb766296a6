package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/openretail/stockcore/internal/domain"
	"github.com/openretail/stockcore/pkg/common"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultLowStockThreshold = 10

// OrderContext carries order-level provenance into the mutation engine.
type OrderContext struct {
	OrderId    int64
	OperatorId int64
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

func WithBus(bus Bus) EngineOption {
	return func(e *Engine) { e.bus = bus }
}

func WithLowStockThreshold(n int64) EngineOption {
	return func(e *Engine) { e.lowStockThreshold = n }
}

func WithUnitCache(cache *UnitCache) EngineOption {
	return func(e *Engine) { e.cache = cache }
}

func WithRestorePool(pool *ants.Pool) EngineOption {
	return func(e *Engine) { e.pool = pool }
}

// Engine applies a cart's worth of stock decrements or increments,
// maintaining the product counters, the packaging pending-sync accumulators
// and the movement ledger. Cart lines are processed sequentially and
// independently: a failed line never aborts its siblings, and the multi-step
// flow per line is not atomic across steps. The engine is not idempotent;
// re-applying the same cart double-decrements.
type Engine struct {
	products  ProductRepository
	units     UnitRepository
	movements MovementRepository
	operators OperatorRepository

	cache             *UnitCache
	bus               Bus
	pool              *ants.Pool
	lowStockThreshold int64
}

func NewEngine(products ProductRepository, units UnitRepository,
	movements MovementRepository, operators OperatorRepository, opts ...EngineOption) *Engine {
	e := &Engine{
		products:          products,
		units:             units,
		movements:         movements,
		operators:         operators,
		cache:             NewUnitCache(),
		bus:               nopBus{},
		lowStockThreshold: DefaultLowStockThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplySale decrements stock for every cart line. Line quantities are already
// expressed in base units by the time they reach the engine; unit-to-base
// conversion happens upstream. Missing products and unresolvable units are
// logged and skipped, store-level failures abort the remaining lines.
func (e *Engine) ApplySale(ctx context.Context, lines []CartLine, oc OrderContext) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if err := e.applySaleLine(ctx, line, oc); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) applySaleLine(ctx context.Context, line CartLine, oc OrderContext) error {
	product, err := e.products.ApplySaleDelta(ctx, line.ProductId, line.Quantity)
	if errors.Is(err, ErrProductNotFound) {
		zap.L().Warn("sale references unknown product, line skipped",
			zap.String("namespace", "stock"),
			zap.Int64("product_id", line.ProductId),
			zap.Int64("order_id", oc.OrderId),
		)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "sale stock update for product %d", line.ProductId)
	}

	// Best effort: keep the packaging pending-sync accumulator in step.
	if unit, uerr := e.resolveUnit(ctx, line.ProductId, line.UnitId); uerr == nil {
		if perr := e.units.IncrementPendingSync(ctx, unit.ID, -line.Quantity); perr != nil {
			zap.L().Warn("pending sync decrement failed",
				zap.String("namespace", "stock"),
				zap.Int64("unit_id", unit.ID),
				zap.Error(perr),
			)
		}
	} else {
		zap.L().Warn("no packaging unit matched sale line",
			zap.String("namespace", "stock"),
			zap.Int64("product_id", line.ProductId),
			zap.Int64("unit_id", line.UnitId),
		)
	}

	refDoc := fmt.Sprintf("Order: %d", oc.OrderId)
	if line.IsCombo() {
		refDoc = fmt.Sprintf("Combo Order: %d - %s", oc.OrderId, line.ComboRef)
	}
	e.appendMovement(ctx, product, movementSpec{
		movementType: domain.MovementSale,
		qtyChange:    -line.Quantity,
		refDoc:       refDoc,
		operatorID:   oc.OperatorId,
		isCombo:      line.IsCombo(),
		comboDesc:    line.ComboRef,
	})

	e.warnStockLevel(product)
	return nil
}

// ApplyRestore is the inverse of ApplySale. Combo lines restore
// comboQuantity × perComboUnitQty base units per constituent, with the
// expanded quantity applied to both stock and sales. Non-combo lines restore
// quantity × packQty base units to stock while decrementing sales by the
// order-level quantity; the two multipliers differ and must not be confused.
func (e *Engine) ApplyRestore(ctx context.Context, lines []CartLine, oc OrderContext) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if err := e.applyRestoreLine(ctx, line, oc); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) applyRestoreLine(ctx context.Context, line CartLine, oc OrderContext) error {
	if len(line.SelectedProducts) > 0 {
		// Bundle definition present: combo quantities are already base units.
		for productID, perUnitQty := range line.SelectedProducts {
			if perUnitQty <= 0 {
				continue
			}
			restored := line.Quantity * perUnitQty
			if err := e.restoreProduct(ctx, productID, restored, restored, line, oc); err != nil {
				return err
			}
		}
		return nil
	}

	packQty := 1.0
	if unit, err := e.resolveUnit(ctx, line.ProductId, line.UnitId); err == nil {
		packQty = PackQtyOf(unit)
	}
	stockDelta := int64(float64(line.Quantity) * packQty)
	return e.restoreProduct(ctx, line.ProductId, stockDelta, line.Quantity, line, oc)
}

func (e *Engine) restoreProduct(ctx context.Context, productID, stockDelta, salesDelta int64, line CartLine, oc OrderContext) error {
	product, err := e.products.ApplyRestoreDelta(ctx, productID, stockDelta, salesDelta)
	if errors.Is(err, ErrProductNotFound) {
		zap.L().Warn("restore references unknown product, line skipped",
			zap.String("namespace", "stock"),
			zap.Int64("product_id", productID),
			zap.Int64("order_id", oc.OrderId),
		)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "restore stock update for product %d", productID)
	}

	if unit, uerr := e.resolveUnit(ctx, productID, line.UnitId); uerr == nil {
		if perr := e.units.IncrementPendingSync(ctx, unit.ID, stockDelta); perr != nil {
			zap.L().Warn("pending sync increment failed",
				zap.String("namespace", "stock"),
				zap.Int64("unit_id", unit.ID),
				zap.Error(perr),
			)
		}
	}

	refDoc := fmt.Sprintf("Order: %d", oc.OrderId)
	if line.IsCombo() {
		refDoc = fmt.Sprintf("Combo Order: %d - %s", oc.OrderId, line.ComboRef)
	}
	e.appendMovement(ctx, product, movementSpec{
		movementType: domain.MovementRestore,
		qtyChange:    stockDelta,
		refDoc:       refDoc,
		operatorID:   oc.OperatorId,
		isCombo:      line.IsCombo(),
		comboDesc:    line.ComboRef,
	})
	return nil
}

// ApplyAdjust applies a signed manual correction to a product's stock and
// records it through the same ledger path as sales and restores. Sales is
// untouched.
func (e *Engine) ApplyAdjust(ctx context.Context, productID, delta int64, reason string, oc OrderContext) error {
	if delta == 0 {
		return nil
	}
	product, err := e.products.ApplyRestoreDelta(ctx, productID, delta, 0)
	if err != nil {
		return errors.Wrapf(err, "adjust stock for product %d", productID)
	}
	e.appendMovement(ctx, product, movementSpec{
		movementType: domain.MovementAdjust,
		qtyChange:    delta,
		refDoc:       common.IfEmptyStr(reason, "Manual adjustment"),
		operatorID:   oc.OperatorId,
	})
	e.warnStockLevel(product)
	return nil
}

// RestoreHandle tracks an asynchronously submitted restore.
type RestoreHandle struct {
	done chan struct{}
	err  error
}

// Wait blocks until the restore completed and returns its error.
func (h *RestoreHandle) Wait() error {
	<-h.done
	return h.err
}

// SubmitRestore schedules ApplyRestore on the engine's worker pool and
// returns a handle the caller may await or detach from. Without a pool the
// restore runs on a plain goroutine.
func (e *Engine) SubmitRestore(ctx context.Context, lines []CartLine, oc OrderContext) (*RestoreHandle, error) {
	h := &RestoreHandle{done: make(chan struct{})}
	task := func() {
		defer close(h.done)
		h.err = e.ApplyRestore(ctx, lines, oc)
		if h.err != nil {
			zap.L().Error("detached restore failed",
				zap.String("namespace", "stock"),
				zap.Int64("order_id", oc.OrderId),
				zap.Error(h.err),
			)
		}
	}
	if e.pool != nil {
		if err := e.pool.Submit(task); err != nil {
			close(h.done)
			return nil, errors.Wrap(err, "submit restore task")
		}
		return h, nil
	}
	go task()
	return h, nil
}

type movementSpec struct {
	movementType string
	qtyChange    int64
	refDoc       string
	operatorID   int64
	isCombo      bool
	comboDesc    string
}

// appendMovement writes one ledger entry for an already applied stock delta.
// The stock mutation has happened by the time this runs; any failure here
// leaves an unaudited mutation, which is logged and signalled, never raised.
func (e *Engine) appendMovement(ctx context.Context, product *domain.Product, spec movementSpec) {
	opr, err := e.operators.Resolve(ctx, spec.operatorID)
	if err != nil {
		zap.L().Error("acting user unresolved, ledger entry skipped",
			zap.String("namespace", "stock"),
			zap.Int64("product_id", product.ID),
			zap.String("ref_doc", spec.refDoc),
			zap.Error(err),
		)
		e.bus.Publish(TopicStockUnaudited, StockAlert{
			ProductId: product.ID,
			Sku:       product.Sku,
			Title:     product.Title,
			Stock:     product.Stock,
			Reason:    "acting user unresolved",
		})
		return
	}

	movement := &domain.StockMovement{
		ID:           common.UUIDint64(),
		ProductId:    product.ID,
		ProductTitle: product.Title,
		ProductSku:   product.Sku,
		MovementType: spec.movementType,
		QtyBefore:    product.Stock - spec.qtyChange,
		QtyChange:    spec.qtyChange,
		QtyAfter:     product.Stock,
		RefDoc:       spec.refDoc,
		ActingUser:   opr.Username,
		CostPerUnit:  product.CostPrice,
		TotalValue:   product.CostPrice * float64(abs64(spec.qtyChange)),
		SyncStatus:   domain.SyncPending,
		IsComboItem:  spec.isCombo,
		ComboDesc:    spec.comboDesc,
		CreatedAt:    time.Now(),
	}
	if err := e.movements.Append(ctx, movement); err != nil {
		zap.L().Error("stock mutated but ledger write failed",
			zap.String("namespace", "stock"),
			zap.Int64("product_id", product.ID),
			zap.String("ref_doc", spec.refDoc),
			zap.Error(err),
		)
		e.bus.Publish(TopicStockUnaudited, StockAlert{
			ProductId: product.ID,
			Sku:       product.Sku,
			Title:     product.Title,
			Stock:     product.Stock,
			Reason:    "ledger write failed",
		})
	}
}

func (e *Engine) warnStockLevel(product *domain.Product) {
	alert := StockAlert{
		ProductId: product.ID,
		Sku:       product.Sku,
		Title:     product.Title,
		Stock:     product.Stock,
	}
	switch {
	case product.Stock <= 0:
		alert.Reason = "out of stock"
		zap.L().Warn("product out of stock",
			zap.String("namespace", "stock"),
			zap.Int64("product_id", product.ID),
			zap.String("sku", product.Sku),
			zap.Int64("stock", product.Stock),
		)
		e.bus.Publish(TopicStockOut, alert)
	case product.Stock <= e.lowStockThreshold:
		alert.Reason = "low stock"
		zap.L().Warn("product stock low",
			zap.String("namespace", "stock"),
			zap.Int64("product_id", product.ID),
			zap.String("sku", product.Sku),
			zap.Int64("stock", product.Stock),
		)
		e.bus.Publish(TopicStockLow, alert)
	}
}

func (e *Engine) resolveUnit(ctx context.Context, productID, unitID int64) (*domain.ProductUnit, error) {
	if unit, ok := e.cache.Get(productID, unitID); ok {
		return unit, nil
	}
	unit, err := e.units.FindForProduct(ctx, productID, unitID)
	if err != nil {
		return nil, err
	}
	e.cache.Put(productID, unitID, unit)
	return unit, nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
