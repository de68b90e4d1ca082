package services

import (
	"errors"
	"fmt"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/domain/model/workflow"
)

var errNilDefinition = errors.New("workflow definition is required")

// TransitionPlan is what has to happen for one accepted transition.
type TransitionPlan struct {
	// Transition is the resolved edge, From being the order's current status.
	Transition workflow.Transition
	// Next is the step to queue once the order reaches Transition.To, nil
	// when that status waits for no agent.
	Next *task.Step
}

// TransitionPolicy decides whether a role may move an order along a named
// transition.
//
// Business rules:
//   - the transition is resolved from the order's current status only
//   - a status outside the workflow is an invalid current state
//   - only the transition's owning role may request it
//   - reaching a status with a fulfillment-owned exit queues one task
//
// Example usage:
//
//	policy, _ := services.NewTransitionPolicy(def)
//	plan, err := policy.Plan(o, "confirm", kernel.RoleFulfillment)
//	if errors.Is(err, workflow.ErrPermissionDenied) {
//	    return err
//	}
//	_ = plan.Transition.To // order.Confirmed
type TransitionPolicy struct {
	def *workflow.Definition
}

// NewTransitionPolicy binds a policy to a workflow definition.
func NewTransitionPolicy(def *workflow.Definition) (TransitionPolicy, error) {
	if def == nil {
		return TransitionPolicy{}, errNilDefinition
	}
	return TransitionPolicy{def: def}, nil
}

// Definition exposes the workflow the policy decides against.
func (p TransitionPolicy) Definition() *workflow.Definition {
	return p.def
}

// Plan checks a requested transition. Errors, in the order they are checked:
// order.ErrInvalidCurrentState, workflow.ErrUnknownTransition,
// workflow.ErrPermissionDenied.
func (p TransitionPolicy) Plan(o *order.Order, name workflow.TransitionName, role kernel.Role) (TransitionPlan, error) {
	if err := o.Validate(); err != nil {
		return TransitionPlan{}, err
	}
	if !p.def.Contains(o.Status()) {
		return TransitionPlan{}, fmt.Errorf("%w: order %s is %s", order.ErrInvalidCurrentState, o.ID(), o.Status())
	}

	t, err := p.def.Resolve(o.Status(), name)
	if err != nil {
		return TransitionPlan{}, err
	}
	if err = t.Authorize(role); err != nil {
		return TransitionPlan{}, err
	}

	return TransitionPlan{Transition: t, Next: p.NextStep(t.To)}, nil
}

// NextStep returns the agent step an order in status waits for, or nil.
func (p TransitionPolicy) NextStep(status order.Status) *task.Step {
	t, ok := p.def.RequiresAgentAction(status)
	if !ok {
		return nil
	}
	return &task.Step{Transition: t.Name, Role: t.RequiredRole}
}

// Advance plans the single fulfillment step leading out of the order's
// current status. It fails with workflow.ErrUnknownTransition when the
// status has none, e.g. for delivered or cancelled orders.
func (p TransitionPolicy) Advance(o *order.Order, role kernel.Role) (TransitionPlan, error) {
	if err := o.Validate(); err != nil {
		return TransitionPlan{}, err
	}
	next, ok := p.def.RequiresAgentAction(o.Status())
	if !ok {
		return TransitionPlan{}, fmt.Errorf("%w: no forward step from %s", workflow.ErrUnknownTransition, o.Status())
	}
	return p.Plan(o, next.Name, role)
}
