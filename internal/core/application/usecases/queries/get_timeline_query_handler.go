package queries

import (
	"context"

	"warehouse/internal/core/ports"
)

// GetTimelineQueryHandler serves the order timeline view.
type GetTimelineQueryHandler struct {
	orders ports.OrderStore
}

// NewGetTimelineQueryHandler creates a new GetTimelineQueryHandler.
func NewGetTimelineQueryHandler(orders ports.OrderStore) GetTimelineQueryHandler {
	return GetTimelineQueryHandler{orders: orders}
}

// Handle builds the timeline from a single order snapshot, so status,
// version, history and milestones always agree.
func (h GetTimelineQueryHandler) Handle(ctx context.Context, query GetTimelineQuery) (GetTimelineQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetTimelineQueryResponse{}, err
	}

	o, err := h.orders.Get(ctx, query.OrderID())
	if err != nil {
		return GetTimelineQueryResponse{}, err
	}

	return GetTimelineQueryResponse{
		OrderID:               o.ID(),
		CurrentStatus:         o.Status(),
		Version:               o.Version(),
		StatusChanges:         o.History(),
		FulfillmentTimestamps: o.Milestones(),
	}, nil
}
