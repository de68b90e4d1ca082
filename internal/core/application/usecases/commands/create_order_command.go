package commands

import (
	"errors"
	"strings"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/pkg/errs"
	"warehouse/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand places a new order for a customer.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), "Ada", []string{"widget"}, "")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	o, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID      kernel.UUID
	customerName string
	items        []string
	notes        string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the order payload: id, a customer name
// and at least one item.
func NewCreateOrderCommand(orderID kernel.UUID, customerName string, items []string, notes string) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		notes: strings.TrimSpace(notes),
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCustomerName(customerName),
		cmd.setItems(items),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID { return c.orderID }
func (c CreateOrderCommand) CustomerName() string { return c.customerName }
func (c CreateOrderCommand) Items() []string      { return c.items }
func (c CreateOrderCommand) Notes() string        { return c.notes }

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setCustomerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("customer_name")
	}

	c.customerName = name
	return nil
}

func (c *CreateOrderCommand) setItems(items []string) error {
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			c.items = append(c.items, strings.TrimSpace(item))
		}
	}
	if len(c.items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	return nil
}
