package commands

import (
	"context"
	"fmt"
	"log/slog"

	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/core/ports"
)

// ReleaseTaskCommandHandler returns a task to its queue, at the position it
// was first queued at, on behalf of the agent holding it.
type ReleaseTaskCommandHandler struct {
	tasks  ports.TaskQueue
	logger *slog.Logger
}

// NewReleaseTaskCommandHandler creates the handler.
func NewReleaseTaskCommandHandler(tasks ports.TaskQueue, logger *slog.Logger) ReleaseTaskCommandHandler {
	return ReleaseTaskCommandHandler{tasks: tasks, logger: logger.With("component", "ReleaseTaskCommandHandler")}
}

// Handle checks that the caller's role owns the task and releases the
// agent's claim. It returns the task as queued again.
func (h ReleaseTaskCommandHandler) Handle(ctx context.Context, cmd ReleaseTaskCommand) (*task.Task, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	t, err := h.tasks.Get(ctx, cmd.TaskID())
	if err != nil {
		return nil, err
	}
	if t.RequiredRole() != cmd.Role() {
		return nil, fmt.Errorf("%w: task %s requires role %s, got %s",
			workflow.ErrPermissionDenied, t.ID(), t.RequiredRole(), cmd.Role())
	}

	released, err := h.tasks.Release(ctx, cmd.TaskID(), cmd.AgentID())
	if err != nil {
		return nil, err
	}
	h.logger.InfoContext(ctx, "task released", "task_id", released.ID().String(), "agent_id", cmd.AgentID())
	return released, nil
}
