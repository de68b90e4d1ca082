package commands

import (
	"context"

	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/core/domain/services"
)

// AdvanceOrderCommandHandler applies the fulfillment transition leading out
// of the order's current status. It shares the retry loop and task handling
// of RequestTransitionCommandHandler. The step is picked on the first read
// and pinned: if a concurrent writer moved the order meanwhile, the retry
// resolves the same step against the new status and fails with
// workflow.ErrUnknownTransition instead of advancing twice.
type AdvanceOrderCommandHandler struct {
	transitions *RequestTransitionCommandHandler
}

// NewAdvanceOrderCommandHandler creates the handler on top of the
// transition service.
func NewAdvanceOrderCommandHandler(transitions *RequestTransitionCommandHandler) AdvanceOrderCommandHandler {
	return AdvanceOrderCommandHandler{transitions: transitions}
}

// Handle applies the next fulfillment step and returns the updated order.
func (h AdvanceOrderCommandHandler) Handle(ctx context.Context, cmd AdvanceOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	t := h.transitions
	var pinned workflow.TransitionName
	return t.transition(ctx, cmd.OrderID(), cmd.Role(), "advanced", "advance",
		func(o *order.Order) (services.TransitionPlan, error) {
			if pinned != "" {
				return t.policy.Plan(o, pinned, cmd.Role())
			}
			plan, err := t.policy.Advance(o, cmd.Role())
			if err != nil {
				return services.TransitionPlan{}, err
			}
			pinned = plan.Transition.Name
			return plan, nil
		})
}
