package commands

import (
	"context"
	"log/slog"

	"warehouse/internal/core/ports"
)

// ReclaimExpiredTasksCommandHandler runs one lease sweep. It is called
// periodically by the scheduler and once by the sweep CLI command.
type ReclaimExpiredTasksCommandHandler struct {
	tasks   ports.TaskQueue
	metrics ports.Metrics
	logger  *slog.Logger
}

// NewReclaimExpiredTasksCommandHandler creates the handler.
func NewReclaimExpiredTasksCommandHandler(
	tasks ports.TaskQueue,
	metrics ports.Metrics,
	logger *slog.Logger,
) ReclaimExpiredTasksCommandHandler {
	return ReclaimExpiredTasksCommandHandler{
		tasks:   tasks,
		metrics: metrics,
		logger:  logger.With("component", "ReclaimExpiredTasksCommandHandler"),
	}
}

// Handle returns how many tasks went back to their queues.
func (h ReclaimExpiredTasksCommandHandler) Handle(ctx context.Context, cmd ReclaimExpiredTasksCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	n, err := h.tasks.ReclaimExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		h.metrics.TasksReclaimed(n)
		h.logger.InfoContext(ctx, "reclaimed expired tasks", "count", n)
	}
	return n, nil
}
