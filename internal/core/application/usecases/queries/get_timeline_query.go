package queries

import (
	"errors"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/pkg/guard"
)

var ErrGetTimelineQueryIsNotConstructed = errors.New(
	"GetTimelineQuery must be created via NewGetTimelineQuery constructor",
)

// GetTimelineQuery reads an order's status history and milestones.
type GetTimelineQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetTimelineQuery requires a valid order id.
func NewGetTimelineQuery(orderID kernel.UUID) (GetTimelineQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetTimelineQuery{}, err
	}
	return GetTimelineQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetTimelineQuery) Validate() error {
	return q.guard.Validate(ErrGetTimelineQueryIsNotConstructed)
}

func (q GetTimelineQuery) OrderID() kernel.UUID { return q.orderID }

// GetTimelineQueryResponse is built from a single order snapshot, so status,
// history and milestones always agree with each other.
type GetTimelineQueryResponse struct {
	OrderID               kernel.UUID
	CurrentStatus         order.Status
	Version               uint64
	StatusChanges         []order.StatusChange
	FulfillmentTimestamps map[order.Milestone]time.Time
}
