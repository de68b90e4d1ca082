package queries

import (
	"errors"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/pkg/guard"
)

var ErrGetStateMachineInfoQueryIsNotConstructed = errors.New(
	"GetStateMachineInfoQuery must be created via NewGetStateMachineInfoQuery constructor",
)

// GetStateMachineInfoQuery describes the workflow for clients.
type GetStateMachineInfoQuery struct {
	guard guard.ConstructorGuard
}

func NewGetStateMachineInfoQuery() GetStateMachineInfoQuery {
	return GetStateMachineInfoQuery{guard: guard.NewConstructorGuard()}
}

func (q GetStateMachineInfoQuery) Validate() error {
	return q.guard.Validate(ErrGetStateMachineInfoQueryIsNotConstructed)
}

// TransitionInfo groups the edges of one named transition.
type TransitionInfo struct {
	Name         workflow.TransitionName
	From         []order.Status
	To           order.Status
	RequiredRole kernel.Role
}

// GetStateMachineInfoQueryResponse lists states and the transition table.
type GetStateMachineInfoQueryResponse struct {
	Initial     order.Status
	States      []order.Status
	Terminal    []order.Status
	Transitions []TransitionInfo
	// Legal maps each status to the transitions available from it.
	Legal map[order.Status][]workflow.TransitionName
}
