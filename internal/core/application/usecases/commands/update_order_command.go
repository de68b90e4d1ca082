package commands

import (
	"errors"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/pkg/guard"
)

var ErrUpdateOrderCommandIsNotConstructed = errors.New(
	"UpdateOrderCommand must be created via NewUpdateOrderCommand constructor",
)

// UpdateOrderCommand edits the descriptive fields of an order. Status is
// not part of it; status only moves through transitions.
type UpdateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	update  order.DetailsUpdate

	guard guard.ConstructorGuard
}

// NewUpdateOrderCommand requires an order id and at least one non-blank field.
func NewUpdateOrderCommand(orderID kernel.UUID, update order.DetailsUpdate) (UpdateOrderCommand, error) {
	if err := errors.Join(orderID.Validate(), update.Validate()); err != nil {
		return UpdateOrderCommand{}, err
	}
	return UpdateOrderCommand{
		orderID: orderID,
		update:  update.Normalized(),
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c UpdateOrderCommand) Validate() error {
	return c.guard.Validate(ErrUpdateOrderCommandIsNotConstructed)
}

func (c UpdateOrderCommand) OrderID() kernel.UUID        { return c.orderID }
func (c UpdateOrderCommand) Update() order.DetailsUpdate { return c.update }
