package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/openretail/stockcore/internal/domain"
	"github.com/openretail/stockcore/internal/webserver"
	"github.com/openretail/stockcore/pkg/common"
)

type unitPayload struct {
	ProductId int64   `json:"product_id,string"`
	Name      string  `json:"name"`
	PackQty   float64 `json:"pack_qty"`
	Price     float64 `json:"price"`
	IsDefault bool    `json:"is_default"`
	IsActive  *bool   `json:"is_active"`
}

// registerUnitRoutes registers packaging unit management endpoints. Units are
// soft-disabled via is_active, never deleted.
func registerUnitRoutes() {
	webserver.ApiGET("/stock/units", listUnits)
	webserver.ApiPOST("/stock/units", createUnit)
	webserver.ApiPUT("/stock/units/:id", updateUnit)
	webserver.ApiPUT("/stock/units/:id/disable", disableUnit)
}

func listUnits(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := appCtx.DB().Model(&domain.ProductUnit{})
	if pid := strings.TrimSpace(c.QueryParam("productId")); pid != "" {
		db = db.Where("product_id = ?", pid)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query units", err.Error())
	}
	var rows []domain.ProductUnit
	if err := db.Order("product_id, pack_qty").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query units", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func validateUnitPayload(payload *unitPayload) string {
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.ProductId == 0 {
		return "Product ID is required"
	}
	if payload.Name == "" {
		return "Name is required"
	}
	if payload.PackQty <= 0 {
		return "Pack quantity must be positive"
	}
	return ""
}

func createUnit(c echo.Context) error {
	var payload unitPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse unit", err.Error())
	}
	if msg := validateUnitPayload(&payload); msg != "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
	}

	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	now := time.Now()
	unit := domain.ProductUnit{
		ID:        common.UUIDint64(),
		ProductId: payload.ProductId,
		Name:      payload.Name,
		PackQty:   payload.PackQty,
		Price:     payload.Price,
		IsDefault: payload.IsDefault,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := appCtx.Units().Save(c.Request().Context(), &unit); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create unit", err.Error())
	}
	return ok(c, unit)
}

func updateUnit(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid unit ID", nil)
	}
	unit, err := appCtx.Units().GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Unit not found", nil)
	}

	var payload unitPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse unit", err.Error())
	}
	if payload.ProductId == 0 {
		payload.ProductId = unit.ProductId
	}
	if msg := validateUnitPayload(&payload); msg != "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
	}

	unit.Name = payload.Name
	unit.PackQty = payload.PackQty
	unit.Price = payload.Price
	unit.IsDefault = payload.IsDefault
	if payload.IsActive != nil {
		unit.IsActive = *payload.IsActive
	}
	unit.UpdatedAt = time.Now()

	if err := appCtx.Units().Save(c.Request().Context(), unit); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update unit", err.Error())
	}
	return ok(c, unit)
}

func disableUnit(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid unit ID", nil)
	}
	result := appCtx.DB().Model(&domain.ProductUnit{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to disable unit", result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Unit not found", nil)
	}
	return ok(c, map[string]interface{}{"id": id, "is_active": false})
}
