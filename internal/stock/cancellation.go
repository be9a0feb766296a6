package stock

import (
	"context"

	"github.com/openretail/stockcore/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrMalformedOrder = errors.New("malformed order")

// CancelResult aggregates the independent compensation outcomes of one order
// cancellation. Partial failures land in the result fields, never in the
// error return.
type CancelResult struct {
	OrderId        int64          `json:"order_id,string"`
	StockRestored  bool           `json:"stock_restored"`
	PointsRestored bool           `json:"points_restored"`
	PointsDetail   *LoyaltyResult `json:"points_detail,omitempty"`
	PointsError    string         `json:"points_error,omitempty"`
}

// Compensator drives the mutation engine in reverse for a cancelled order and
// invokes the loyalty restore contract.
type Compensator struct {
	engine  *Engine
	loyalty LoyaltyService

	// waitRestore awaits the full per-line restore before returning; when
	// false the restore runs detached on the engine's pool.
	waitRestore bool
}

func NewCompensator(engine *Engine, loyalty LoyaltyService, waitRestore bool) *Compensator {
	return &Compensator{engine: engine, loyalty: loyalty, waitRestore: waitRestore}
}

// CancelOrder compensates a cancelled order: stock restore first, then
// loyalty-point restore. Each step is individually fault tolerant.
// StockRestored is true once restoration has been initiated; per-line restore
// failures are logged, not escalated. A loyalty failure is captured in the
// result and never fails the cancellation. Only a malformed order returns an
// error.
func (c *Compensator) CancelOrder(ctx context.Context, order *domain.Order) (*CancelResult, error) {
	if order == nil || order.ID == 0 {
		return nil, ErrMalformedOrder
	}

	result := &CancelResult{OrderId: order.ID}

	lines, lineErrs := ResolveOrderLines(order)
	for _, lerr := range lineErrs {
		zap.L().Warn("unresolvable cart line ignored during cancellation",
			zap.String("namespace", "stock"),
			zap.Int64("order_id", order.ID),
			zap.Error(lerr),
		)
	}

	if len(lines) > 0 {
		oc := OrderContext{OrderId: order.ID, OperatorId: order.OperatorId}
		if c.waitRestore {
			if err := c.engine.ApplyRestore(ctx, lines, oc); err != nil {
				zap.L().Error("stock restore incomplete for cancelled order",
					zap.String("namespace", "stock"),
					zap.Int64("order_id", order.ID),
					zap.Error(err),
				)
			}
			result.StockRestored = true
		} else {
			if _, err := c.engine.SubmitRestore(ctx, lines, oc); err != nil {
				zap.L().Error("could not schedule stock restore",
					zap.String("namespace", "stock"),
					zap.Int64("order_id", order.ID),
					zap.Error(err),
				)
			} else {
				result.StockRestored = true
			}
		}
	}

	if order.LoyaltyPointsUsed > 0 {
		if c.loyalty == nil {
			result.PointsError = "loyalty service not configured"
		} else {
			res, err := c.loyalty.Restore(ctx, order.CustomerId, order.ID, order.LoyaltyPointsUsed)
			switch {
			case err != nil:
				result.PointsError = err.Error()
				zap.L().Error("loyalty point restore failed",
					zap.String("namespace", "stock"),
					zap.Int64("order_id", order.ID),
					zap.Int64("points", order.LoyaltyPointsUsed),
					zap.Error(err),
				)
			case !res.Success:
				result.PointsDetail = res
				result.PointsError = res.Error
				zap.L().Error("loyalty point restore rejected",
					zap.String("namespace", "stock"),
					zap.Int64("order_id", order.ID),
					zap.String("reason", res.Error),
				)
			default:
				result.PointsRestored = true
				result.PointsDetail = res
			}
		}
	}

	return result, nil
}
