package adminapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/openretail/stockcore/internal/app"
)

var appCtx app.AppContext

// Init wires the admin API onto the application and registers all routes.
func Init(ctx app.AppContext) {
	appCtx = ctx
	registerAuthRoutes()
	registerStockRoutes()
	registerUnitRoutes()
	registerOrderRoutes()
}

// apiResponse is the uniform envelope of the admin API.
type apiResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
}

type pagedData struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(200, apiResponse{Code: "OK", Data: data})
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, apiResponse{Code: code, Message: message, Detail: detail})
}

func paged(c echo.Context, items interface{}, total int64, page, pageSize int) error {
	return ok(c, pagedData{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// parsePagination reads page/perPage query params with sane bounds.
func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	perPage := strings.TrimSpace(c.QueryParam("perPage"))
	if perPage == "" {
		perPage = strings.TrimSpace(c.QueryParam("pageSize"))
	}
	if ps, err := strconv.Atoi(perPage); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func parseID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
