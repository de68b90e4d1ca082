package http

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/labstack/echo/v4"
)

// RequestValidator checks requests against the OpenAPI document before they
// reach the handlers. Paths outside the document (metrics, docs) pass through.
func RequestValidator(swagger *openapi3.T) (echo.MiddlewareFunc, error) {
	// Routes are matched on path only.
	swagger.Servers = nil
	router, err := legacy.NewRouter(swagger)
	if err != nil {
		return nil, err
	}
	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			route, pathParams, findErr := router.FindRoute(req)
			if findErr != nil {
				return next(ctx)
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if validateErr := openapi3filter.ValidateRequest(req.Context(), input); validateErr != nil {
				return echo.NewHTTPError(http.StatusBadRequest, validateErr.Error())
			}
			return next(ctx)
		}
	}, nil
}
