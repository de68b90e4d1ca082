package queries

import (
	"context"
	"slices"

	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/workflow"
)

// GetStateMachineInfoQueryHandler renders the loaded workflow definition.
type GetStateMachineInfoQueryHandler struct {
	def *workflow.Definition
}

// NewGetStateMachineInfoQueryHandler creates a handler describing def.
func NewGetStateMachineInfoQueryHandler(def *workflow.Definition) GetStateMachineInfoQueryHandler {
	return GetStateMachineInfoQueryHandler{def: def}
}

// Handle lists the workflow's statuses, transitions and legal moves.
func (h GetStateMachineInfoQueryHandler) Handle(
	_ context.Context,
	query GetStateMachineInfoQuery,
) (GetStateMachineInfoQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetStateMachineInfoQueryResponse{}, err
	}

	resp := GetStateMachineInfoQueryResponse{
		Initial: h.def.Initial(),
		States:  h.def.States(),
		Legal:   make(map[order.Status][]workflow.TransitionName),
	}

	for _, s := range resp.States {
		if h.def.IsTerminal(s) {
			resp.Terminal = append(resp.Terminal, s)
		}
		resp.Legal[s] = h.def.LegalTransitions(s)
	}

	byName := make(map[workflow.TransitionName]int)
	for _, t := range h.def.Transitions() {
		if i, ok := byName[t.Name]; ok {
			resp.Transitions[i].From = append(resp.Transitions[i].From, t.From)
			continue
		}
		byName[t.Name] = len(resp.Transitions)
		resp.Transitions = append(resp.Transitions, TransitionInfo{
			Name: t.Name, From: []order.Status{t.From}, To: t.To, RequiredRole: t.RequiredRole,
		})
	}
	slices.SortFunc(resp.Transitions, func(a, b TransitionInfo) int {
		return compareStrings(string(a.Name), string(b.Name))
	})

	return resp, nil
}
