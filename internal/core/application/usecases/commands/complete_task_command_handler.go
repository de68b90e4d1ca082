package commands

import (
	"context"
	"fmt"
	"log/slog"

	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/core/domain/services"
	"warehouse/internal/core/ports"
)

// CompleteTaskCommandHandler finishes a claimed task and applies the
// transition the task stands for.
//
// Completion is idempotent per agent. A repeated call by the agent that
// already completed the task applies the task's transition only if the
// first call did not get it through, which the order still being at the
// task's version shows. Otherwise it re-settles the order's task and returns
// the order as it is now. A failed transition can therefore be retried with
// the same complete call.
//
// Example:
//
//	cmd, _ := NewCompleteTaskCommand(taskID, "agent-7", kernel.RoleFulfillment)
//	o, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, task.ErrNotClaimedByCaller) {
//	    // someone else holds the claim
//	}
type CompleteTaskCommandHandler struct {
	tasks       ports.TaskQueue
	orders      ports.OrderStore
	transitions *RequestTransitionCommandHandler
	metrics     ports.Metrics
	logger      *slog.Logger
}

// NewCompleteTaskCommandHandler creates the handler. Transitions go through
// the given transition service so they share its retries and task settling.
func NewCompleteTaskCommandHandler(
	tasks ports.TaskQueue,
	orders ports.OrderStore,
	transitions *RequestTransitionCommandHandler,
	metrics ports.Metrics,
	logger *slog.Logger,
) CompleteTaskCommandHandler {
	return CompleteTaskCommandHandler{
		tasks:       tasks,
		orders:      orders,
		transitions: transitions,
		metrics:     metrics,
		logger:      logger.With("component", "CompleteTaskCommandHandler"),
	}
}

// Handle completes the task and returns the order after the task's
// transition. If the order moved on in the meantime (e.g. it was
// cancelled) the task stays completed and the transition error is returned.
func (h CompleteTaskCommandHandler) Handle(ctx context.Context, cmd CompleteTaskCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	t, err := h.tasks.Get(ctx, cmd.TaskID())
	if err != nil {
		return nil, err
	}
	if t.RequiredRole() != cmd.Role() {
		return nil, fmt.Errorf("%w: task %s requires role %s, got %s",
			workflow.ErrPermissionDenied, t.ID(), t.RequiredRole(), cmd.Role())
	}

	completion, err := h.tasks.Complete(ctx, cmd.TaskID(), cmd.AgentID())
	if err != nil {
		return nil, err
	}
	if completion.AlreadyCompleted {
		h.logger.InfoContext(ctx, "task already completed", "task_id", t.ID().String(), "agent_id", cmd.AgentID())
		return h.resume(ctx, completion.Task, cmd.AgentID())
	}
	h.metrics.TaskCompleted(t.RequiredRole())

	return h.applyTaskTransition(ctx, completion.Task, cmd.AgentID())
}

// resume finishes an earlier completion of t. Every accepted status change
// bumps the version, so an order still at t's version has not taken t's
// transition yet.
func (h CompleteTaskCommandHandler) resume(ctx context.Context, t *task.Task, agentID string) (*order.Order, error) {
	o, err := h.orders.Get(ctx, t.OrderID())
	if err != nil {
		return nil, err
	}
	if o.Version() == t.OrderVersion() {
		h.logger.InfoContext(ctx, "re-applying transition of completed task",
			"task_id", t.ID().String(), "order_id", o.ID().String(), "transition", t.Transition().String())
		return h.applyTaskTransition(ctx, t, agentID)
	}

	if err = h.transitions.settle(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (h CompleteTaskCommandHandler) applyTaskTransition(ctx context.Context, t *task.Task, agentID string) (*order.Order, error) {
	role := t.RequiredRole()
	name := t.Transition()
	note := fmt.Sprintf("%s completed by %s", name, agentID)

	o, err := h.transitions.transition(ctx, t.OrderID(), role, note, string(name),
		func(o *order.Order) (services.TransitionPlan, error) {
			return h.transitions.policy.Plan(o, name, role)
		})
	if err != nil {
		h.logger.WarnContext(ctx, "completed task did not move its order",
			"task_id", t.ID().String(), "order_id", t.OrderID().String(), "error", err)
		return nil, err
	}
	return o, nil
}
