package servers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Liveness probe
	// (GET /health)
	HealthCheck(ctx echo.Context) error
	// List orders, oldest first
	// (GET /orders)
	ListOrders(ctx echo.Context) error
	// Place an order in pending
	// (POST /orders)
	CreateOrder(ctx echo.Context) error
	// Get one order
	// (GET /orders/{id})
	GetOrder(ctx echo.Context, id openapi_types.UUID) error
	// Edit customer name, items or notes
	// (PATCH /orders/{id})
	UpdateOrder(ctx echo.Context, id openapi_types.UUID) error
	// Delete an order and withdraw its task
	// (DELETE /orders/{id})
	DeleteOrder(ctx echo.Context, id openapi_types.UUID) error
	// Apply the next fulfillment transition
	// (POST /orders/{id}/advance)
	AdvanceOrder(ctx echo.Context, id openapi_types.UUID, params AdvanceOrderParams) error
	// Status history and fulfillment milestones
	// (GET /orders/{id}/timeline)
	GetTimeline(ctx echo.Context, id openapi_types.UUID) error
	// Apply a named transition as the asserted role
	// (POST /orders/{id}/transition)
	RequestTransition(ctx echo.Context, id openapi_types.UUID, params RequestTransitionParams) error
	// Lease the oldest queued task of the caller's role
	// (POST /queue/claim)
	ClaimTask(ctx echo.Context, params ClaimTaskParams) error
	// Complete a claimed task and apply its transition
	// (POST /queue/complete)
	CompleteTask(ctx echo.Context, params CompleteTaskParams) error
	// Return a claimed task to its queue
	// (POST /queue/release)
	ReleaseTask(ctx echo.Context, params ReleaseTaskParams) error
	// Queued and claimed task counts per role
	// (GET /queue/status)
	GetQueueStatus(ctx echo.Context) error
	// Workflow states and transitions
	// (GET /state-machine/info)
	GetStateMachineInfo(ctx echo.Context) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// HealthCheck converts echo context to params.
func (w *ServerInterfaceWrapper) HealthCheck(ctx echo.Context) error {
	return w.Handler.HealthCheck(ctx)
}

// ListOrders converts echo context to params.
func (w *ServerInterfaceWrapper) ListOrders(ctx echo.Context) error {
	return w.Handler.ListOrders(ctx)
}

// CreateOrder converts echo context to params.
func (w *ServerInterfaceWrapper) CreateOrder(ctx echo.Context) error {
	return w.Handler.CreateOrder(ctx)
}

// GetOrder converts echo context to params.
func (w *ServerInterfaceWrapper) GetOrder(ctx echo.Context) error {
	id, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetOrder(ctx, id)
}

// UpdateOrder converts echo context to params.
func (w *ServerInterfaceWrapper) UpdateOrder(ctx echo.Context) error {
	id, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.UpdateOrder(ctx, id)
}

// DeleteOrder converts echo context to params.
func (w *ServerInterfaceWrapper) DeleteOrder(ctx echo.Context) error {
	id, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.DeleteOrder(ctx, id)
}

// AdvanceOrder converts echo context to params.
func (w *ServerInterfaceWrapper) AdvanceOrder(ctx echo.Context) error {
	id, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	var params AdvanceOrderParams
	if params.XAGENTROLE, err = bindAgentRole(ctx); err != nil {
		return err
	}
	return w.Handler.AdvanceOrder(ctx, id, params)
}

// GetTimeline converts echo context to params.
func (w *ServerInterfaceWrapper) GetTimeline(ctx echo.Context) error {
	id, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetTimeline(ctx, id)
}

// RequestTransition converts echo context to params.
func (w *ServerInterfaceWrapper) RequestTransition(ctx echo.Context) error {
	id, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	var params RequestTransitionParams
	if params.XAGENTROLE, err = bindAgentRole(ctx); err != nil {
		return err
	}
	return w.Handler.RequestTransition(ctx, id, params)
}

// ClaimTask converts echo context to params.
func (w *ServerInterfaceWrapper) ClaimTask(ctx echo.Context) error {
	var (
		params ClaimTaskParams
		err    error
	)
	err = runtime.BindQueryParameter("form", true, true, "agent_id", ctx.QueryParams(), &params.AgentId)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter agent_id: %s", err))
	}
	err = runtime.BindQueryParameter("form", true, false, "lease_seconds", ctx.QueryParams(), &params.LeaseSeconds)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter lease_seconds: %s", err))
	}
	if params.XAGENTROLE, err = bindAgentRole(ctx); err != nil {
		return err
	}
	return w.Handler.ClaimTask(ctx, params)
}

// CompleteTask converts echo context to params.
func (w *ServerInterfaceWrapper) CompleteTask(ctx echo.Context) error {
	var (
		params CompleteTaskParams
		err    error
	)
	if params.XAGENTROLE, err = bindAgentRole(ctx); err != nil {
		return err
	}
	return w.Handler.CompleteTask(ctx, params)
}

// ReleaseTask converts echo context to params.
func (w *ServerInterfaceWrapper) ReleaseTask(ctx echo.Context) error {
	var (
		params ReleaseTaskParams
		err    error
	)
	err = runtime.BindQueryParameter("form", true, true, "agent_id", ctx.QueryParams(), &params.AgentId)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter agent_id: %s", err))
	}
	if params.XAGENTROLE, err = bindAgentRole(ctx); err != nil {
		return err
	}
	return w.Handler.ReleaseTask(ctx, params)
}

// GetQueueStatus converts echo context to params.
func (w *ServerInterfaceWrapper) GetQueueStatus(ctx echo.Context) error {
	return w.Handler.GetQueueStatus(ctx)
}

// GetStateMachineInfo converts echo context to params.
func (w *ServerInterfaceWrapper) GetStateMachineInfo(ctx echo.Context) error {
	return w.Handler.GetStateMachineInfo(ctx)
}

func bindOrderID(ctx echo.Context) (openapi_types.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return id, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
	}
	return id, nil
}

// bindAgentRole reads the optional role header. A missing header is nil;
// the handler decides what an absent role means.
func bindAgentRole(ctx echo.Context) (*string, error) {
	valueList, found := ctx.Request().Header[http.CanonicalHeaderKey(AgentRoleHeader)]
	if !found {
		return nil, nil
	}
	if n := len(valueList); n != 1 {
		return nil, echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Expected one value for %s, got %d", AgentRoleHeader, n))
	}
	var role string
	err := runtime.BindStyledParameterWithOptions("simple", AgentRoleHeader, valueList[0], &role,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationHeader, Explode: false, Required: false})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Invalid format for parameter %s: %s", AgentRoleHeader, err))
	}
	return &role, nil
}

// EchoRouter is the subset of echo.Echo and echo.Group used for registration.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers handlers under baseURL.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.GET(baseURL+"/health", wrapper.HealthCheck)
	router.GET(baseURL+"/orders", wrapper.ListOrders)
	router.POST(baseURL+"/orders", wrapper.CreateOrder)
	router.GET(baseURL+"/orders/:id", wrapper.GetOrder)
	router.PATCH(baseURL+"/orders/:id", wrapper.UpdateOrder)
	router.DELETE(baseURL+"/orders/:id", wrapper.DeleteOrder)
	router.POST(baseURL+"/orders/:id/advance", wrapper.AdvanceOrder)
	router.GET(baseURL+"/orders/:id/timeline", wrapper.GetTimeline)
	router.POST(baseURL+"/orders/:id/transition", wrapper.RequestTransition)
	router.POST(baseURL+"/queue/claim", wrapper.ClaimTask)
	router.POST(baseURL+"/queue/complete", wrapper.CompleteTask)
	router.POST(baseURL+"/queue/release", wrapper.ReleaseTask)
	router.GET(baseURL+"/queue/status", wrapper.GetQueueStatus)
	router.GET(baseURL+"/state-machine/info", wrapper.GetStateMachineInfo)
}
