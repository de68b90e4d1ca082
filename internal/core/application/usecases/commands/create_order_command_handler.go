package commands

import (
	"context"
	"log/slog"
	"time"

	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/services"
	"warehouse/internal/core/ports"
)

// CreateOrderCommandHandler places orders and queues their first agent task.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(orders, tasks, policy, metrics, logger)
//	o, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
//	// o is pending, a "confirm" task waits in the fulfillment queue
type CreateOrderCommandHandler struct {
	orders  ports.OrderStore
	tasks   ports.TaskQueue
	policy  services.TransitionPolicy
	metrics ports.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewCreateOrderCommandHandler creates the handler. The policy tells which
// task a freshly placed order waits for.
func NewCreateOrderCommandHandler(
	orders ports.OrderStore,
	tasks ports.TaskQueue,
	policy services.TransitionPolicy,
	metrics ports.Metrics,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		orders:  orders,
		tasks:   tasks,
		policy:  policy,
		metrics: metrics,
		logger:  logger.With("component", "CreateOrderCommandHandler"),
		now:     time.Now,
	}
}

// Handle stores the order in pending and queues the task the initial status
// waits for.
//
// The order is stored first. If queueing its task then fails, the order is
// still returned and the failure is logged: the order exists and can be
// moved on by a direct confirm transition or an advance, each of which
// settles the order's task again.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	o, err := order.NewOrder(cmd.OrderID(), cmd.CustomerName(), cmd.Items(), cmd.Notes(), h.now())
	if err != nil {
		return nil, err
	}

	if err = h.orders.Add(ctx, o); err != nil {
		return nil, err
	}

	if next := h.policy.NextStep(o.Status()); next != nil {
		s, settleErr := h.tasks.Settle(ctx, o.ID(), o.Version(), next)
		switch {
		case settleErr != nil:
			h.logger.ErrorContext(ctx, "first task of order not queued",
				"order_id", o.ID().String(), "transition", next.Transition.String(), "error", settleErr)
		case s.HasQueued():
			h.metrics.TaskEnqueued(next.Role)
		}
	}

	h.logger.InfoContext(ctx, "order placed", "order_id", o.ID().String(), "items", len(o.Items()))
	return o, nil
}
