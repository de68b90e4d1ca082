package task

import (
	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/workflow"
)

// Step is the agent transition an order waits for in its current status.
type Step struct {
	Transition workflow.TransitionName
	Role       kernel.Role
}

// Settlement reports what a settle changed for one order.
type Settlement struct {
	// Skipped is set when a settle for the same or a newer order version
	// had already run, or the order was closed. Nothing changed.
	Skipped bool
	// Withdrawn is set when an active task of an older version was retired.
	Withdrawn bool
	// Queued is the id of the task queued for the step, zero if none.
	Queued kernel.UUID
}

// HasQueued reports whether the settle queued a task.
func (s Settlement) HasQueued() bool {
	return s.Queued.Validate() == nil
}
