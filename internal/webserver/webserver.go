package webserver

import (
	"context"
	"fmt"
	"io"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/openretail/stockcore/config"
	"go.uber.org/zap"
)

var server *WebServer

// WebServer hosts the admin API surface.
type WebServer struct {
	cfg  *config.AppConfig
	root *echo.Echo
	api  *echo.Group
}

// jsonSerializer routes echo's JSON handling through json-iterator.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(c.Request().Body).Decode(i)
	if err == io.EOF {
		return echo.NewHTTPError(http.StatusBadRequest, "empty body")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// Init builds the echo instance and the /api group. Routes registered through
// ApiGET and friends land under /api, behind JWT auth when a secret is
// configured.
func Init(cfg *config.AppConfig) {
	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = jsonSerializer{}
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := e.Group("/api")
	if cfg.Web.JwtSecret != "" {
		api.Use(echojwt.WithConfig(echojwt.Config{
			SigningKey: []byte(cfg.Web.JwtSecret),
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/api/auth/login"
			},
		}))
	}

	server = &WebServer{cfg: cfg, root: e, api: api}
}

// Listen starts serving and blocks.
func Listen() error {
	if server == nil {
		return fmt.Errorf("webserver not initialized")
	}
	addr := fmt.Sprintf("%s:%d", server.cfg.Web.Host, server.cfg.Web.Port)
	zap.S().Infof("admin api listening on %s", addr)
	return server.root.Start(addr)
}

// Shutdown stops the http server gracefully.
func Shutdown(ctx context.Context) error {
	if server == nil {
		return nil
	}
	return server.root.Shutdown(ctx)
}

func ApiGET(path string, h echo.HandlerFunc) {
	server.api.GET(path, h)
}

func ApiPOST(path string, h echo.HandlerFunc) {
	server.api.POST(path, h)
}

func ApiPUT(path string, h echo.HandlerFunc) {
	server.api.PUT(path, h)
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	server.api.DELETE(path, h)
}
