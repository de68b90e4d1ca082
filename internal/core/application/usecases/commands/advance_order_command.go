package commands

import (
	"errors"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/pkg/guard"
)

var ErrAdvanceOrderCommandIsNotConstructed = errors.New(
	"AdvanceOrderCommand must be created via NewAdvanceOrderCommand constructor",
)

// AdvanceOrderCommand moves an order one step along the forward
// fulfillment path, whatever that step is for its current status.
type AdvanceOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	role    kernel.Role

	guard guard.ConstructorGuard
}

// NewAdvanceOrderCommand requires an order id and a known role.
func NewAdvanceOrderCommand(orderID kernel.UUID, role kernel.Role) (AdvanceOrderCommand, error) {
	if err := errors.Join(orderID.Validate(), role.Validate()); err != nil {
		return AdvanceOrderCommand{}, err
	}
	return AdvanceOrderCommand{orderID: orderID, role: role, guard: guard.NewConstructorGuard()}, nil
}

func (c AdvanceOrderCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceOrderCommandIsNotConstructed)
}

func (c AdvanceOrderCommand) OrderID() kernel.UUID { return c.orderID }
func (c AdvanceOrderCommand) Role() kernel.Role    { return c.role }
