package http

import (
	"fmt"
	"net/http"
	"time"

	"warehouse/internal/core/application/usecases/commands"
	"warehouse/internal/core/application/usecases/queries"
	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/generated/servers"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// noTaskMessage is returned by claim when the role's queue is empty.
const noTaskMessage = "no task available"

// CommandHandlers groups the write side used by the HTTP server.
type CommandHandlers struct {
	CreateOrder       *commands.CreateOrderCommandHandler
	UpdateOrder       commands.UpdateOrderCommandHandler
	DeleteOrder       commands.DeleteOrderCommandHandler
	RequestTransition *commands.RequestTransitionCommandHandler
	AdvanceOrder      commands.AdvanceOrderCommandHandler
	ClaimTask         commands.ClaimTaskCommandHandler
	CompleteTask      commands.CompleteTaskCommandHandler
	ReleaseTask       commands.ReleaseTaskCommandHandler
}

// QueryHandlers groups the read side used by the HTTP server.
type QueryHandlers struct {
	GetOrder            queries.GetOrderQueryHandler
	ListOrders          queries.ListOrdersQueryHandler
	GetTimeline         queries.GetTimelineQueryHandler
	GetQueueStatus      queries.GetQueueStatusQueryHandler
	GetStateMachineInfo queries.GetStateMachineInfoQueryHandler
}

// Server implements servers.ServerInterface on top of the use cases.
// It parses the role header, builds commands and queries, and maps domain
// errors to HTTP statuses.
type Server struct {
	commands CommandHandlers
	queries  QueryHandlers
}

var _ servers.ServerInterface = (*Server)(nil)

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(cmds CommandHandlers, qs QueryHandlers) *Server {
	return &Server{commands: cmds, queries: qs}
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, servers.Health{Ok: true})
}

// ListOrders handles GET /orders.
func (s *Server) ListOrders(ctx echo.Context) error {
	orders, err := s.queries.ListOrders.Handle(ctx.Request().Context(), queries.NewListOrdersQuery())
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]servers.Order, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrder(o))
	}
	return ctx.JSON(http.StatusOK, response)
}

// CreateOrder handles POST /orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body servers.CreateOrderJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return writeMessage(ctx, http.StatusBadRequest, "Invalid request body")
	}

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), body.CustomerName, body.Items, deref(body.Notes))
	if err != nil {
		return writeError(ctx, err)
	}

	o, err := s.commands.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, toOrder(o))
}

// GetOrder handles GET /orders/{id}.
func (s *Server) GetOrder(ctx echo.Context, id openapi_types.UUID) error {
	orderID, err := kernel.UUIDFromGoogle(id)
	if err != nil {
		return writeError(ctx, err)
	}
	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return writeError(ctx, err)
	}

	o, err := s.queries.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toOrder(o))
}

// UpdateOrder handles PATCH /orders/{id}. The request validator rejects
// bodies carrying fields other than customer_name, items and notes, so a
// status cannot be set through it.
func (s *Server) UpdateOrder(ctx echo.Context, id openapi_types.UUID) error {
	var body servers.UpdateOrderJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return writeMessage(ctx, http.StatusBadRequest, "Invalid request body")
	}
	orderID, err := kernel.UUIDFromGoogle(id)
	if err != nil {
		return writeError(ctx, err)
	}

	update := order.DetailsUpdate{CustomerName: body.CustomerName, Notes: body.Notes}
	if body.Items != nil {
		update.Items = *body.Items
	}
	cmd, err := commands.NewUpdateOrderCommand(orderID, update)
	if err != nil {
		return writeError(ctx, err)
	}

	o, err := s.commands.UpdateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toOrder(o))
}

// DeleteOrder handles DELETE /orders/{id}.
func (s *Server) DeleteOrder(ctx echo.Context, id openapi_types.UUID) error {
	orderID, err := kernel.UUIDFromGoogle(id)
	if err != nil {
		return writeError(ctx, err)
	}
	cmd, err := commands.NewDeleteOrderCommand(orderID)
	if err != nil {
		return writeError(ctx, err)
	}

	if err = s.commands.DeleteOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, servers.Deleted{Deleted: id})
}

// RequestTransition handles POST /orders/{id}/transition.
func (s *Server) RequestTransition(ctx echo.Context, id openapi_types.UUID, params servers.RequestTransitionParams) error {
	role, err := parseRole(params.XAGENTROLE)
	if err != nil {
		return writeError(ctx, err)
	}
	var body servers.RequestTransitionJSONRequestBody
	if err = ctx.Bind(&body); err != nil {
		return writeMessage(ctx, http.StatusBadRequest, "Invalid request body")
	}
	orderID, err := kernel.UUIDFromGoogle(id)
	if err != nil {
		return writeError(ctx, err)
	}

	cmd, err := commands.NewRequestTransitionCommand(orderID, workflow.TransitionName(body.Transition), role, deref(body.Notes))
	if err != nil {
		return writeError(ctx, err)
	}

	o, err := s.commands.RequestTransition.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toOrder(o))
}

// AdvanceOrder handles POST /orders/{id}/advance.
func (s *Server) AdvanceOrder(ctx echo.Context, id openapi_types.UUID, params servers.AdvanceOrderParams) error {
	role, err := parseRole(params.XAGENTROLE)
	if err != nil {
		return writeError(ctx, err)
	}
	orderID, err := kernel.UUIDFromGoogle(id)
	if err != nil {
		return writeError(ctx, err)
	}

	cmd, err := commands.NewAdvanceOrderCommand(orderID, role)
	if err != nil {
		return writeError(ctx, err)
	}

	o, err := s.commands.AdvanceOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toOrder(o))
}

// GetTimeline handles GET /orders/{id}/timeline.
func (s *Server) GetTimeline(ctx echo.Context, id openapi_types.UUID) error {
	orderID, err := kernel.UUIDFromGoogle(id)
	if err != nil {
		return writeError(ctx, err)
	}
	query, err := queries.NewGetTimelineQuery(orderID)
	if err != nil {
		return writeError(ctx, err)
	}

	timeline, err := s.queries.GetTimeline.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toTimeline(timeline))
}

// ClaimTask handles POST /queue/claim.
func (s *Server) ClaimTask(ctx echo.Context, params servers.ClaimTaskParams) error {
	role, err := parseRole(params.XAGENTROLE)
	if err != nil {
		return writeError(ctx, err)
	}
	var lease time.Duration
	if params.LeaseSeconds != nil {
		lease = time.Duration(*params.LeaseSeconds) * time.Second
	}

	cmd, err := commands.NewClaimTaskCommand(role, params.AgentId, lease)
	if err != nil {
		return writeError(ctx, err)
	}

	t, err := s.commands.ClaimTask.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	if t == nil {
		return ctx.JSON(http.StatusOK, servers.Message{Message: noTaskMessage})
	}
	return ctx.JSON(http.StatusOK, toTask(t))
}

// CompleteTask handles POST /queue/complete.
func (s *Server) CompleteTask(ctx echo.Context, params servers.CompleteTaskParams) error {
	role, err := parseRole(params.XAGENTROLE)
	if err != nil {
		return writeError(ctx, err)
	}
	var body servers.CompleteTaskJSONRequestBody
	if err = ctx.Bind(&body); err != nil {
		return writeMessage(ctx, http.StatusBadRequest, "Invalid request body")
	}
	taskID, err := kernel.UUIDFromGoogle(body.TaskId)
	if err != nil {
		return writeError(ctx, err)
	}

	cmd, err := commands.NewCompleteTaskCommand(taskID, body.AgentId, role)
	if err != nil {
		return writeError(ctx, err)
	}

	o, err := s.commands.CompleteTask.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toOrder(o))
}

// ReleaseTask handles POST /queue/release.
func (s *Server) ReleaseTask(ctx echo.Context, params servers.ReleaseTaskParams) error {
	role, err := parseRole(params.XAGENTROLE)
	if err != nil {
		return writeError(ctx, err)
	}
	var body servers.ReleaseTaskJSONRequestBody
	if err = ctx.Bind(&body); err != nil {
		return writeMessage(ctx, http.StatusBadRequest, "Invalid request body")
	}
	taskID, err := kernel.UUIDFromGoogle(body.TaskId)
	if err != nil {
		return writeError(ctx, err)
	}

	cmd, err := commands.NewReleaseTaskCommand(taskID, params.AgentId, role)
	if err != nil {
		return writeError(ctx, err)
	}

	t, err := s.commands.ReleaseTask.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toTask(t))
}

// GetQueueStatus handles GET /queue/status.
func (s *Server) GetQueueStatus(ctx echo.Context) error {
	status, err := s.queries.GetQueueStatus.Handle(ctx.Request().Context(), queries.NewGetQueueStatusQuery())
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toQueueStatus(status))
}

// GetStateMachineInfo handles GET /state-machine/info.
func (s *Server) GetStateMachineInfo(ctx echo.Context) error {
	info, err := s.queries.GetStateMachineInfo.Handle(ctx.Request().Context(), queries.NewGetStateMachineInfoQuery())
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toStateMachineInfo(info))
}

// parseRole turns the optional role header into a Role. A missing header is
// an unknown role.
func parseRole(header *string) (kernel.Role, error) {
	if header == nil {
		return kernel.RoleUnknown, fmt.Errorf("%w: %s header is required", kernel.ErrUnknownRole, servers.AgentRoleHeader)
	}
	return kernel.ParseRole(*header)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
