package commands

import (
	"context"
	"fmt"
	"log/slog"

	"warehouse/internal/core/ports"
)

// DeleteOrderCommandHandler removes an order and withdraws its active task.
//
// The order goes first, then the task queue is closed for it. A concurrent
// transition that loses the race to the delete fails on the missing order,
// and its settle, if it got that far, is skipped once Withdraw has closed
// the order. A task claimed after the order is gone fails on completion
// with errs.ErrObjectNotFound.
type DeleteOrderCommandHandler struct {
	orders ports.OrderStore
	tasks  ports.TaskQueue
	logger *slog.Logger
}

// NewDeleteOrderCommandHandler creates the handler.
func NewDeleteOrderCommandHandler(
	orders ports.OrderStore,
	tasks ports.TaskQueue,
	logger *slog.Logger,
) DeleteOrderCommandHandler {
	return DeleteOrderCommandHandler{
		orders: orders,
		tasks:  tasks,
		logger: logger.With("component", "DeleteOrderCommandHandler"),
	}
}

// Handle deletes the order, then withdraws its task. Unknown ids surface
// as errs.ErrObjectNotFound and leave the queue alone.
func (h *DeleteOrderCommandHandler) Handle(ctx context.Context, cmd DeleteOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if err := h.orders.Delete(ctx, cmd.OrderID()); err != nil {
		return err
	}

	withdrawn, err := h.tasks.Withdraw(ctx, cmd.OrderID())
	if err != nil {
		h.logger.ErrorContext(ctx, "task of deleted order not withdrawn",
			"order_id", cmd.OrderID().String(), "error", err)
		return fmt.Errorf("withdraw task of deleted order %s: %w", cmd.OrderID(), err)
	}

	h.logger.InfoContext(ctx, "order deleted", "order_id", cmd.OrderID().String(), "withdrawn", withdrawn)
	return nil
}
