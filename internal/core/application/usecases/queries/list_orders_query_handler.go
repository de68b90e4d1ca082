package queries

import (
	"context"
	"slices"

	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/ports"
)

type ListOrdersQueryHandler struct {
	orders ports.OrderStore
}

// NewListOrdersQueryHandler creates a new ListOrdersQueryHandler.
func NewListOrdersQueryHandler(orders ports.OrderStore) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{orders: orders}
}

// Handle returns orders sorted by creation time, ties broken by id.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]*order.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders, err := h.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(orders, func(a, b *order.Order) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return compareStrings(a.ID().String(), b.ID().String())
	})
	return orders, nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
