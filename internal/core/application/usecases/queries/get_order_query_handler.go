package queries

import (
	"context"

	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/ports"
)

// GetOrderQueryHandler returns the stored order snapshot.
type GetOrderQueryHandler struct {
	orders ports.OrderStore
}

// NewGetOrderQueryHandler creates a new GetOrderQueryHandler.
func NewGetOrderQueryHandler(orders ports.OrderStore) GetOrderQueryHandler {
	return GetOrderQueryHandler{orders: orders}
}

// Handle returns one snapshot of the order or errs.ErrObjectNotFound.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*order.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return h.orders.Get(ctx, query.OrderID())
}
