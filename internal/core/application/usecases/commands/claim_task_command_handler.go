package commands

import (
	"context"
	"log/slog"
	"time"

	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/ports"
)

// ClaimTaskCommandHandler leases the oldest queued task of the caller's
// role. It returns (nil, nil) when there is nothing to do.
type ClaimTaskCommandHandler struct {
	tasks        ports.TaskQueue
	metrics      ports.Metrics
	logger       *slog.Logger
	defaultLease time.Duration
}

// NewClaimTaskCommandHandler creates the handler. A defaultLease of zero or
// less means DefaultLease.
func NewClaimTaskCommandHandler(
	tasks ports.TaskQueue,
	metrics ports.Metrics,
	logger *slog.Logger,
	defaultLease time.Duration,
) ClaimTaskCommandHandler {
	if defaultLease <= 0 {
		defaultLease = DefaultLease
	}
	return ClaimTaskCommandHandler{
		tasks:        tasks,
		metrics:      metrics,
		logger:       logger.With("component", "ClaimTaskCommandHandler"),
		defaultLease: defaultLease,
	}
}

// Handle claims a task for the command's agent, with the command's lease or
// the default one. A nil task and nil error mean the role's queue is empty.
func (h ClaimTaskCommandHandler) Handle(ctx context.Context, cmd ClaimTaskCommand) (*task.Task, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	lease := cmd.Lease()
	if lease == 0 {
		lease = h.defaultLease
	}

	t, err := h.tasks.Claim(ctx, cmd.Role(), cmd.AgentID(), lease)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}

	h.metrics.TaskClaimed(cmd.Role())
	h.logger.InfoContext(ctx, "task claimed",
		"task_id", t.ID().String(), "order_id", t.OrderID().String(),
		"agent_id", cmd.AgentID(), "expires_at", t.ClaimExpiry())
	return t, nil
}
