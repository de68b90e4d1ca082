// Package taskqueue keeps fulfillment tasks in Redis.
//
// Layout, with the default prefix:
//
//	warehouse:task:{id}              hash: order_id, order_version, transition,
//	                                 role, state, claimed_by, claim_expiry,
//	                                 created_at, completed_by, completed_at, seq
//	warehouse:queue:{role}           sorted set of queued task ids, scored by
//	                                 enqueue sequence (FIFO)
//	warehouse:task:active:{order}    id of the order's queued or claimed task
//	warehouse:task:settled:{order}   last order version the tasks were
//	                                 settled for, or "closed"
//	warehouse:task:leases            sorted set of claimed task ids, scored by
//	                                 lease expiry (unix ms)
//	warehouse:tasks:{role}:claimed   set of claimed task ids
//	warehouse:task:seq               enqueue sequence counter
//
// Every mutation is a single Lua script.
package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

// Queue is the Redis implementation of ports.TaskQueue.
type Queue struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// Option configures a Queue.
type Option func(*Queue)

// WithPrefix sets the key prefix. Default is "warehouse".
func WithPrefix(prefix string) Option {
	return func(q *Queue) {
		q.prefix = prefix
	}
}

// WithClock replaces time.Now for leases and timestamps.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

// NewQueue creates a Redis-backed task queue.
func NewQueue(client redis.UniversalClient, opts ...Option) *Queue {
	q := &Queue{
		client: client,
		prefix: "warehouse",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue) taskKey(id string) string         { return q.prefix + ":task:" + id }
func (q *Queue) activeKey(orderID string) string  { return q.prefix + ":task:active:" + orderID }
func (q *Queue) settledKey(orderID string) string { return q.prefix + ":task:settled:" + orderID }
func (q *Queue) queueKey(role kernel.Role) string { return q.prefix + ":queue:" + role.String() }
func (q *Queue) claimedKey(role kernel.Role) string {
	return q.prefix + ":tasks:" + role.String() + ":claimed"
}
func (q *Queue) leasesKey() string { return q.prefix + ":task:leases" }
func (q *Queue) seqKey() string    { return q.prefix + ":task:seq" }

// Settle retires the order's stale task and queues next in one script.
func (q *Queue) Settle(ctx context.Context, orderID kernel.UUID, version uint64, next *task.Step) (task.Settlement, error) {
	if err := orderID.Validate(); err != nil {
		return task.Settlement{}, err
	}

	args := []any{q.prefix, version}
	var queued *task.Task
	if next != nil {
		t, err := task.NewTask(kernel.NewUUID(), orderID, version, next.Transition, next.Role, q.now())
		if err != nil {
			return task.Settlement{}, err
		}
		queued = t
		args = append(args, t.ID().String(), orderID.String(), next.Transition.String(),
			next.Role.String(), t.CreatedAt().UnixMilli())
	}

	key := orderID.String()
	res, err := settleScript.Run(ctx, q.client,
		[]string{q.settledKey(key), q.activeKey(key), q.leasesKey(), q.seqKey()}, args...,
	).Int64Slice()
	if err != nil {
		return task.Settlement{}, fmt.Errorf("redis settle: %w", err)
	}
	if len(res) != 3 {
		return task.Settlement{}, fmt.Errorf("unexpected settle reply of %d elements", len(res))
	}

	s := task.Settlement{Skipped: res[0] == 0, Withdrawn: res[1] == 1}
	if res[2] == 1 {
		s.Queued = queued.ID()
	}
	return s, nil
}

// Claim leases the lowest-sequence queued task of role.
func (q *Queue) Claim(ctx context.Context, role kernel.Role, agentID string, lease time.Duration) (*task.Task, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}
	if agentID == "" {
		return nil, errs.NewValueIsRequiredError("agent_id")
	}
	if lease <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("lease", lease, time.Millisecond, "unbounded")
	}

	expiry := q.now().Add(lease).UnixMilli()
	res, err := claimScript.Run(ctx, q.client,
		[]string{q.queueKey(role), q.leasesKey(), q.claimedKey(role)},
		q.prefix, agentID, expiry,
	).Slice()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis claim: %w", err)
	}

	id, _ := res[0].(string)
	return decodeTaskReply(id, res[1])
}

// Complete finishes a task claimed by agentID.
func (q *Queue) Complete(ctx context.Context, taskID kernel.UUID, agentID string) (task.Completion, error) {
	id := taskID.String()
	res, err := completeScript.Run(ctx, q.client,
		[]string{q.taskKey(id), q.leasesKey()},
		q.prefix, id, agentID, q.now().UnixMilli(),
	).Slice()
	if err != nil {
		return task.Completion{}, fmt.Errorf("redis complete: %w", err)
	}

	outcome, _ := res[0].(string)
	switch outcome {
	case "ok", "already":
		t, decodeErr := decodeTaskReply(id, res[1])
		if decodeErr != nil {
			return task.Completion{}, decodeErr
		}
		return task.Completion{Task: t, AlreadyCompleted: outcome == "already"}, nil
	default:
		return task.Completion{}, outcomeError(outcome, res, id)
	}
}

// Release returns a task claimed by agentID to its queue.
func (q *Queue) Release(ctx context.Context, taskID kernel.UUID, agentID string) (*task.Task, error) {
	id := taskID.String()
	res, err := releaseScript.Run(ctx, q.client,
		[]string{q.taskKey(id), q.leasesKey()},
		q.prefix, id, agentID,
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("redis release: %w", err)
	}

	outcome, _ := res[0].(string)
	if outcome != "ok" {
		return nil, outcomeError(outcome, res, id)
	}
	return decodeTaskReply(id, res[1])
}

// ReclaimExpired requeues claims whose lease ended at or before now.
func (q *Queue) ReclaimExpired(ctx context.Context) (int, error) {
	n, err := reclaimScript.Run(ctx, q.client, []string{q.leasesKey()}, q.prefix, q.now().UnixMilli()).Int()
	if err != nil {
		return 0, fmt.Errorf("redis reclaim: %w", err)
	}
	return n, nil
}

// Withdraw retires the order's active task and closes the order.
func (q *Queue) Withdraw(ctx context.Context, orderID kernel.UUID) (int, error) {
	key := orderID.String()
	n, err := withdrawScript.Run(ctx, q.client,
		[]string{q.settledKey(key), q.activeKey(key), q.leasesKey()}, q.prefix).Int()
	if err != nil {
		return 0, fmt.Errorf("redis withdraw: %w", err)
	}
	return n, nil
}

// Status counts queued and claimed tasks per role in one MULTI/EXEC block.
func (q *Queue) Status(ctx context.Context) (task.QueueStatus, error) {
	type counters struct {
		queued  *redis.IntCmd
		claimed *redis.IntCmd
	}
	cmds := make(map[kernel.Role]counters, len(kernel.Roles()))
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, role := range kernel.Roles() {
			cmds[role] = counters{
				queued:  pipe.ZCard(ctx, q.queueKey(role)),
				claimed: pipe.SCard(ctx, q.claimedKey(role)),
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis queue status: %w", err)
	}

	status := task.NewQueueStatus()
	for role, c := range cmds {
		status[role] = task.Counts{Queued: int(c.queued.Val()), Claimed: int(c.claimed.Val())}
	}
	return status, nil
}

// Get reads one task.
func (q *Queue) Get(ctx context.Context, taskID kernel.UUID) (*task.Task, error) {
	id := taskID.String()
	fields, err := q.client.HGetAll(ctx, q.taskKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get task: %w", err)
	}
	if len(fields) == 0 {
		return nil, errs.NewObjectNotFoundError("task", id)
	}
	return decodeTask(id, fields)
}

func outcomeError(outcome string, res []any, id string) error {
	switch outcome {
	case "missing":
		return errs.NewObjectNotFoundError("task", id)
	case "foreign":
		return fmt.Errorf("%w: task %s", task.ErrNotClaimedByCaller, id)
	case "expired":
		return fmt.Errorf("%w: task %s", task.ErrLeaseExpired, id)
	case "not_claimed":
		state := ""
		if len(res) > 1 {
			state, _ = res[1].(string)
		}
		return fmt.Errorf("%w: task %s is %s", task.ErrTaskNotClaimed, id, state)
	default:
		return fmt.Errorf("unexpected script outcome %q for task %s", outcome, id)
	}
}

func decodeTaskReply(id string, v any) (*task.Task, error) {
	raw, ok := v.([]any)
	if !ok || len(raw)%2 != 0 {
		return nil, fmt.Errorf("unexpected task reply %T", v)
	}
	fields := make(map[string]string, len(raw)/2)
	for i := 0; i < len(raw); i += 2 {
		k, _ := raw[i].(string)
		val, _ := raw[i+1].(string)
		fields[k] = val
	}
	return decodeTask(id, fields)
}

func decodeTask(rawID string, fields map[string]string) (*task.Task, error) {
	id, err := kernel.UUIDFromString(rawID)
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromString(fields["order_id"])
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", rawID, err)
	}
	orderVersion, err := strconv.ParseUint(fields["order_version"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("task %s: order_version: %w", rawID, err)
	}
	role, err := kernel.ParseRole(fields["role"])
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", rawID, err)
	}
	state, err := task.ParseState(fields["state"])
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", rawID, err)
	}
	createdAt, err := parseMillis(fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("task %s: created_at: %w", rawID, err)
	}
	claimExpiry, err := parseMillis(fields["claim_expiry"])
	if err != nil {
		return nil, fmt.Errorf("task %s: claim_expiry: %w", rawID, err)
	}
	completedAt, err := parseMillis(fields["completed_at"])
	if err != nil {
		return nil, fmt.Errorf("task %s: completed_at: %w", rawID, err)
	}

	return task.RestoreTask(id, orderID, orderVersion, workflow.TransitionName(fields["transition"]), role, state,
		fields["claimed_by"], claimExpiry, createdAt, fields["completed_by"], completedAt)
}

// parseMillis reads a unix millisecond timestamp; empty means zero time.
func parseMillis(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
