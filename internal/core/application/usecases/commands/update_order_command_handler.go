package commands

import (
	"context"
	"log/slog"

	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/ports"
)

// UpdateOrderCommandHandler edits customer name, items and notes. The task
// queue is not touched: the pending step depends on status only.
type UpdateOrderCommandHandler struct {
	orders ports.OrderStore
	logger *slog.Logger
}

// NewUpdateOrderCommandHandler creates the handler.
func NewUpdateOrderCommandHandler(orders ports.OrderStore, logger *slog.Logger) UpdateOrderCommandHandler {
	return UpdateOrderCommandHandler{
		orders: orders,
		logger: logger.With("component", "UpdateOrderCommandHandler"),
	}
}

// Handle writes the edit and returns the order as stored.
// Unknown ids surface as errs.ErrObjectNotFound.
func (h *UpdateOrderCommandHandler) Handle(ctx context.Context, cmd UpdateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	o, err := h.orders.UpdateDetails(ctx, cmd.OrderID(), cmd.Update())
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "order details updated", "order_id", o.ID().String())
	return o, nil
}
