package commands

import (
	"errors"
	"strings"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/pkg/errs"
	"warehouse/internal/pkg/guard"
)

var ErrRequestTransitionCommandIsNotConstructed = errors.New(
	"RequestTransitionCommand must be created via NewRequestTransitionCommand constructor",
)

// RequestTransitionCommand asks to move an order along a named transition
// on behalf of a role.
type RequestTransitionCommand struct { //nolint:recvcheck //using for validation
	orderID    kernel.UUID
	transition workflow.TransitionName
	role       kernel.Role
	notes      string

	guard guard.ConstructorGuard
}

// NewRequestTransitionCommand validates ids and role. Whether the transition
// exists for the order is decided by the handler against the current status.
func NewRequestTransitionCommand(
	orderID kernel.UUID,
	transition workflow.TransitionName,
	role kernel.Role,
	notes string,
) (RequestTransitionCommand, error) {
	cmd := RequestTransitionCommand{
		notes: strings.TrimSpace(notes),
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setTransition(transition),
		cmd.setRole(role),
	); err != nil {
		return RequestTransitionCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c RequestTransitionCommand) Validate() error {
	return c.guard.Validate(ErrRequestTransitionCommandIsNotConstructed)
}

func (c RequestTransitionCommand) OrderID() kernel.UUID                { return c.orderID }
func (c RequestTransitionCommand) Transition() workflow.TransitionName { return c.transition }
func (c RequestTransitionCommand) Role() kernel.Role                   { return c.role }
func (c RequestTransitionCommand) Notes() string                       { return c.notes }

func (c *RequestTransitionCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *RequestTransitionCommand) setTransition(name workflow.TransitionName) error {
	name = workflow.TransitionName(strings.ToLower(strings.TrimSpace(string(name))))
	if name == "" {
		return errs.NewValueIsRequiredError("transition_name")
	}
	c.transition = name
	return nil
}

func (c *RequestTransitionCommand) setRole(role kernel.Role) error {
	if err := role.Validate(); err != nil {
		return err
	}
	c.role = role
	return nil
}
