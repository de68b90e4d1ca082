package ports

import (
	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/domain/model/workflow"
)

// Metrics records service activity. Implementations must be safe for
// concurrent use and must not block.
type Metrics interface {
	TransitionApplied(name workflow.TransitionName, role kernel.Role)
	TransitionRejected(reason string)
	VersionConflict()
	TaskEnqueued(role kernel.Role)
	TaskClaimed(role kernel.Role)
	TaskCompleted(role kernel.Role)
	TasksReclaimed(count int)
	QueueDepth(status task.QueueStatus)
}
