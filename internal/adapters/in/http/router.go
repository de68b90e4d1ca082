package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"warehouse/internal/generated/servers"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/swaggo/swag"
)

// RouterConfig holds the collaborators of the echo instance.
type RouterConfig struct {
	Logger *slog.Logger
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
}

var registerDocOnce sync.Once

// openAPIDoc feeds the embedded document to the swagger UI.
type openAPIDoc struct {
	json string
}

func (d openAPIDoc) ReadDoc() string { return d.json }

// NewRouter builds the echo instance serving the API, its OpenAPI document,
// the swagger UI and metrics.
//
// Example:
//
//	e, err := http.NewRouter(server, http.RouterConfig{Logger: logger, Metrics: m.Handler()})
//	if err != nil {
//	    return err
//	}
//	return e.Start(":8080")
func NewRouter(si servers.ServerInterface, cfg RouterConfig) (*echo.Echo, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	swagger, err := servers.GetSwagger()
	if err != nil {
		return nil, err
	}
	specJSON, err := swagger.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("render OpenAPI document: %w", err)
	}
	validator, err := RequestValidator(swagger)
	if err != nil {
		return nil, fmt.Errorf("build request validator: %w", err)
	}
	registerDocOnce.Do(func() {
		swag.Register(swag.Name, openAPIDoc{json: string(specJSON)})
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))
	e.Use(validator)

	e.GET("/openapi.json", func(ctx echo.Context) error {
		return ctx.JSONBlob(http.StatusOK, specJSON)
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics))
	}

	servers.RegisterHandlers(e, si)
	return e, nil
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	logger = logger.With("component", "HTTP")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(ctx.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}
