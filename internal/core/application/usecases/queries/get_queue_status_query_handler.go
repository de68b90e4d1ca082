package queries

import (
	"context"

	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/ports"
)

type GetQueueStatusQueryHandler struct {
	tasks ports.TaskQueue
}

// NewGetQueueStatusQueryHandler creates a new GetQueueStatusQueryHandler.
func NewGetQueueStatusQueryHandler(tasks ports.TaskQueue) GetQueueStatusQueryHandler {
	return GetQueueStatusQueryHandler{tasks: tasks}
}

// Handle returns queued and claimed counts for every role.
func (h GetQueueStatusQueryHandler) Handle(ctx context.Context, query GetQueueStatusQuery) (task.QueueStatus, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return h.tasks.Status(ctx)
}
