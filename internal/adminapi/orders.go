package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/openretail/stockcore/internal/domain"
	"github.com/openretail/stockcore/internal/webserver"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func registerOrderRoutes() {
	webserver.ApiPOST("/orders/:id/cancel", cancelOrder)
}

// cancelOrder marks the order cancelled and runs the stock and loyalty
// compensation. Compensation failures surface as warnings in the response but
// never block the cancellation itself.
func cancelOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	var order domain.Order
	if err := appCtx.DB().Preload("Lines").First(&order, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	if order.Status == domain.OrderCancelled {
		return fail(c, http.StatusConflict, "ALREADY_CANCELLED", "Order is already cancelled", nil)
	}

	if err := appCtx.DB().Model(&domain.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":     domain.OrderCancelled,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to cancel order", err.Error())
	}

	result, err := appCtx.Compensator().CancelOrder(c.Request().Context(), &order)
	if err != nil {
		// The order is already cancelled at this point; only a malformed
		// order or an unreachable store lands here.
		zap.L().Error("order compensation failed",
			zap.Int64("order_id", order.ID),
			zap.Error(errors.WithStack(err)),
		)
		return fail(c, http.StatusInternalServerError, "COMPENSATION_ERROR", "Order cancelled but compensation failed", err.Error())
	}

	return ok(c, result)
}
