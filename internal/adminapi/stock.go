package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/openretail/stockcore/internal/domain"
	"github.com/openretail/stockcore/internal/stock"
	"github.com/openretail/stockcore/internal/webserver"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// salePayload carries a cart's worth of raw lines. Line quantities are base
// units; packaging conversion happens before the request is built.
type salePayload struct {
	OrderId    int64               `json:"order_id,string"`
	OperatorId int64               `json:"operator_id,string"`
	Lines      []stock.RawCartLine `json:"lines"`
}

type adjustPayload struct {
	Delta      int64  `json:"delta"`
	Reason     string `json:"reason"`
	OperatorId int64  `json:"operator_id,string"`
}

func registerStockRoutes() {
	webserver.ApiGET("/stock/availability/:productId", getAvailability)
	webserver.ApiGET("/stock/movements", listMovements)
	webserver.ApiPOST("/stock/sale", applySale)
	webserver.ApiPOST("/stock/restore", applyRestore)
	webserver.ApiPOST("/stock/adjust/:productId", adjustStock)
}

func getAvailability(c echo.Context) error {
	productID, err := parseID(c, "productId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	availability, err := appCtx.StockCalculator().Availability(c.Request().Context(), productID)
	if err != nil {
		if errors.Is(err, stock.ErrProductNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute availability", err.Error())
	}
	return ok(c, availability)
}

func listMovements(c echo.Context) error {
	page, pageSize := parsePagination(c)
	filter := stock.MovementFilter{
		ProductID:    cast.ToInt64(c.QueryParam("productId")),
		MovementType: strings.TrimSpace(c.QueryParam("type")),
		SyncStatus:   strings.TrimSpace(c.QueryParam("syncStatus")),
	}
	rows, total, err := appCtx.Movements().List(c.Request().Context(), filter, page, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query stock movements", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func resolvePayloadLines(raw []stock.RawCartLine) ([]stock.CartLine, []string) {
	var lines []stock.CartLine
	var skipped []string
	for _, r := range raw {
		line, err := stock.ResolveCartLine(r)
		if err != nil {
			skipped = append(skipped, err.Error())
			continue
		}
		lines = append(lines, line)
	}
	return lines, skipped
}

func applySale(c echo.Context) error {
	var payload salePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse sale", err.Error())
	}
	lines, skipped := resolvePayloadLines(payload.Lines)
	if len(lines) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No resolvable cart lines", skipped)
	}
	err := appCtx.StockEngine().ApplySale(c.Request().Context(), lines, stock.OrderContext{
		OrderId:    payload.OrderId,
		OperatorId: payload.OperatorId,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "STOCK_ERROR", "Sale aborted", err.Error())
	}
	return ok(c, map[string]interface{}{"applied": len(lines), "skipped": skipped})
}

func applyRestore(c echo.Context) error {
	var payload salePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse restore", err.Error())
	}
	lines, skipped := resolvePayloadLines(payload.Lines)
	if len(lines) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No resolvable cart lines", skipped)
	}
	err := appCtx.StockEngine().ApplyRestore(c.Request().Context(), lines, stock.OrderContext{
		OrderId:    payload.OrderId,
		OperatorId: payload.OperatorId,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "STOCK_ERROR", "Restore aborted", err.Error())
	}
	return ok(c, map[string]interface{}{"applied": len(lines), "skipped": skipped})
}

func adjustStock(c echo.Context) error {
	productID, err := parseID(c, "productId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var payload adjustPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse adjustment", err.Error())
	}
	if payload.Delta == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Delta must be non-zero", nil)
	}
	err = appCtx.StockEngine().ApplyAdjust(c.Request().Context(), productID, payload.Delta,
		payload.Reason, stock.OrderContext{OperatorId: payload.OperatorId})
	if err != nil {
		if errors.Is(err, stock.ErrProductNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "STOCK_ERROR", "Adjustment failed", err.Error())
	}
	var p domain.Product
	if qerr := appCtx.DB().First(&p, productID).Error; qerr == nil {
		return ok(c, p)
	}
	return ok(c, map[string]interface{}{"id": productID})
}
