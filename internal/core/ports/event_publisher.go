package ports

import (
	"context"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/workflow"
)

// OrderStatusChanged is emitted after every accepted status change.
type OrderStatusChanged struct {
	OrderID    kernel.UUID
	Transition workflow.TransitionName
	From       order.Status
	To         order.Status
	ActorRole  kernel.Role
	Version    uint64
	At         time.Time
}

// EventPublisher delivers domain events to other services. Publishing is
// best effort: the status change is already stored when Publish is called.
type EventPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, event OrderStatusChanged) error
}
