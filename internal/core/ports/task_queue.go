package ports

import (
	"context"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/task"
)

// TaskQueue distributes fulfillment tasks to agents. Queues are per role and
// FIFO by enqueue order. Claims are leases; a claim is exclusive.
type TaskQueue interface {
	// Settle brings the order's task in line with the order at version. In
	// one atomic step it retires the active task left from an older
	// version and, when next is not nil, queues a task for it.
	//
	// Settles are ordered by version: a settle for a version at or below
	// the last settled one is skipped, so two status changes that settle
	// out of order never leave the order with a stale task.
	//
	// Example:
	//   s, err := queue.Settle(ctx, o.ID(), o.Version(), &task.Step{Transition: "pick", Role: kernel.RoleFulfillment})
	//   if err == nil && s.Skipped {
	//       // a newer status change already settled the order
	//   }
	Settle(ctx context.Context, orderID kernel.UUID, version uint64, next *task.Step) (task.Settlement, error)

	// Claim leases the oldest queued task of role to agentID. It returns
	// (nil, nil) when the role's queue is empty. Two concurrent claims
	// never receive the same task.
	Claim(ctx context.Context, role kernel.Role, agentID string, lease time.Duration) (*task.Task, error)

	// Complete marks a task claimed by agentID as completed. Completing a
	// task the same agent already completed reports AlreadyCompleted.
	//
	// Errors: errs.ErrObjectNotFound, task.ErrTaskNotClaimed,
	// task.ErrNotClaimedByCaller, task.ErrLeaseExpired.
	Complete(ctx context.Context, taskID kernel.UUID, agentID string) (task.Completion, error)

	// Release returns a task claimed by agentID to its queue at the position
	// it was first enqueued.
	Release(ctx context.Context, taskID kernel.UUID, agentID string) (*task.Task, error)

	// ReclaimExpired requeues every claimed task whose lease has passed and
	// returns how many were requeued.
	ReclaimExpired(ctx context.Context) (int, error)

	// Withdraw retires the order's active task, if any, and closes the order
	// to later settles. It returns how many tasks it retired (0 or 1).
	Withdraw(ctx context.Context, orderID kernel.UUID) (int, error)

	// Status returns per-role counts of queued and claimed tasks.
	Status(ctx context.Context) (task.QueueStatus, error)

	// Get returns a task by id or errs.ErrObjectNotFound.
	Get(ctx context.Context, taskID kernel.UUID) (*task.Task, error)
}
