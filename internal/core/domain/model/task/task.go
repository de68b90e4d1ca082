package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/pkg/errs"
)

var (
	ErrTaskIsNotConstructed = errors.New("Task must be created via NewTask constructor")

	// ErrDuplicateActiveTask is returned when an order already has a queued or claimed task.
	ErrDuplicateActiveTask = errors.New("order already has an active task")

	// ErrTaskNotClaimed is returned when an operation needs a claimed task.
	ErrTaskNotClaimed = errors.New("task is not claimed")

	// ErrNotClaimedByCaller is returned when another agent holds the claim.
	ErrNotClaimedByCaller = errors.New("task is claimed by another agent")

	// ErrLeaseExpired is returned for claims whose lease ran out before the
	// sweep returned them to the queue. It matches ErrTaskNotClaimed.
	ErrLeaseExpired = fmt.Errorf("%w: lease expired", ErrTaskNotClaimed)
)

// Task is one fulfillment step for one order.
type Task struct {
	id           kernel.UUID
	orderID      kernel.UUID
	orderVersion uint64
	transition   workflow.TransitionName
	requiredRole kernel.Role
	state        State
	claimedBy    string
	claimExpiry  time.Time
	createdAt    time.Time
	completedBy  string
	completedAt  time.Time

	isConstructed bool
}

// Completion is the outcome of completing a task. AlreadyCompleted is set
// when the same agent had completed the task before; callers must not
// re-apply its transition.
type Completion struct {
	Task             *Task
	AlreadyCompleted bool
}

// NewTask creates a queued task for the order as it stands at orderVersion.
func NewTask(
	id, orderID kernel.UUID,
	orderVersion uint64,
	transition workflow.TransitionName,
	role kernel.Role,
	now time.Time,
) (*Task, error) {
	if err := errors.Join(
		id.Validate(),
		orderID.Validate(),
		validateOrderVersion(orderVersion),
		role.Validate(),
		validateTransition(transition),
	); err != nil {
		return nil, err
	}
	return &Task{
		id:            id,
		orderID:       orderID,
		orderVersion:  orderVersion,
		transition:    transition,
		requiredRole:  role,
		state:         StateQueued,
		createdAt:     now.UTC(),
		isConstructed: true,
	}, nil
}

// RestoreTask rebuilds a task from storage. Zero times mean "not set".
func RestoreTask(
	id, orderID kernel.UUID,
	orderVersion uint64,
	transition workflow.TransitionName,
	role kernel.Role,
	state State,
	claimedBy string,
	claimExpiry time.Time,
	createdAt time.Time,
	completedBy string,
	completedAt time.Time,
) (*Task, error) {
	t, err := NewTask(id, orderID, orderVersion, transition, role, createdAt)
	if err != nil {
		return nil, err
	}
	if _, ok := getStateStrings()[state]; !ok || state == StateUnknown {
		return nil, errs.NewValueIsInvalidError("state")
	}
	if (state == StateClaimed) != (claimedBy != "" && !claimExpiry.IsZero()) {
		return nil, errs.NewValueIsInvalidErrorWithCause("claimed_by",
			fmt.Errorf("task %s is %s with claimant %q", id, state, claimedBy))
	}
	t.state = state
	t.claimedBy = claimedBy
	if !claimExpiry.IsZero() {
		t.claimExpiry = claimExpiry.UTC()
	}
	t.completedBy = completedBy
	if !completedAt.IsZero() {
		t.completedAt = completedAt.UTC()
	}
	return t, nil
}

func validateOrderVersion(v uint64) error {
	if v == 0 {
		return errs.NewValueIsOutOfRangeError("order_version", v, 1, "unbounded")
	}
	return nil
}

func validateTransition(name workflow.TransitionName) error {
	if strings.TrimSpace(string(name)) == "" {
		return errs.NewValueIsRequiredError("transition_name")
	}
	return nil
}

// Validate ensures the task was built through a constructor.
func (t *Task) Validate() error {
	if t == nil || !t.isConstructed {
		return ErrTaskIsNotConstructed
	}
	return nil
}

// ID returns the task identifier.
func (t *Task) ID() kernel.UUID { return t.id }

// OrderID returns the order the task moves.
func (t *Task) OrderID() kernel.UUID { return t.orderID }

// OrderVersion is the order version the task was queued for. The order
// still has that version exactly when the task's transition was not applied.
func (t *Task) OrderVersion() uint64 { return t.orderVersion }

// Transition returns the workflow transition completing the task applies.
func (t *Task) Transition() workflow.TransitionName { return t.transition }

// RequiredRole returns the role whose agents may claim the task.
func (t *Task) RequiredRole() kernel.Role { return t.requiredRole }

// State returns the lifecycle state.
func (t *Task) State() State { return t.state }

// ClaimedBy returns the agent holding the claim, empty unless claimed.
func (t *Task) ClaimedBy() string { return t.claimedBy }

// ClaimExpiry returns when the claim lapses, zero unless claimed.
func (t *Task) ClaimExpiry() time.Time { return t.claimExpiry }

// CreatedAt returns when the task was queued.
func (t *Task) CreatedAt() time.Time { return t.createdAt }

// CompletedBy returns the agent that completed the task.
func (t *Task) CompletedBy() string { return t.completedBy }

// CompletedAt returns when the task was completed, zero until then.
func (t *Task) CompletedAt() time.Time { return t.completedAt }

// LeaseExpired reports whether a claimed task's lease has run out at now.
func (t *Task) LeaseExpired(now time.Time) bool {
	return t.state == StateClaimed && !now.Before(t.claimExpiry)
}

// Claim leases a queued task to agentID until now+lease.
func (t *Task) Claim(agentID string, now time.Time, lease time.Duration) error {
	if strings.TrimSpace(agentID) == "" {
		return errs.NewValueIsRequiredError("agent_id")
	}
	if lease <= 0 {
		return errs.NewValueIsOutOfRangeError("lease", lease, time.Nanosecond, "unbounded")
	}
	if t.state != StateQueued {
		return fmt.Errorf("task %s is %s, not queued", t.id, t.state)
	}
	t.state = StateClaimed
	t.claimedBy = agentID
	t.claimExpiry = now.Add(lease).UTC()
	return nil
}

// Complete finishes a claimed task. Completing again as the same agent
// reports alreadyCompleted instead of failing.
func (t *Task) Complete(agentID string, now time.Time) (alreadyCompleted bool, err error) {
	switch t.state {
	case StateCompleted:
		if t.completedBy == agentID {
			return true, nil
		}
		return false, fmt.Errorf("%w: task %s was completed by another agent", ErrNotClaimedByCaller, t.id)
	case StateClaimed:
		if t.claimedBy != agentID {
			return false, fmt.Errorf("%w: task %s", ErrNotClaimedByCaller, t.id)
		}
		if t.LeaseExpired(now) {
			return false, fmt.Errorf("%w: task %s", ErrLeaseExpired, t.id)
		}
	default:
		return false, fmt.Errorf("%w: task %s is %s", ErrTaskNotClaimed, t.id, t.state)
	}

	t.state = StateCompleted
	t.completedBy = agentID
	t.completedAt = now.UTC()
	t.claimedBy = ""
	t.claimExpiry = time.Time{}
	return false, nil
}

// Release hands a claimed task back to the queue.
func (t *Task) Release(agentID string) error {
	if t.state != StateClaimed {
		return fmt.Errorf("%w: task %s is %s", ErrTaskNotClaimed, t.id, t.state)
	}
	if t.claimedBy != agentID {
		return fmt.Errorf("%w: task %s", ErrNotClaimedByCaller, t.id)
	}
	t.requeue()
	return nil
}

// Expire requeues the task if its lease has run out and reports whether it did.
func (t *Task) Expire(now time.Time) bool {
	if !t.LeaseExpired(now) {
		return false
	}
	t.requeue()
	return true
}

// Withdraw retires an active task whose order no longer needs it.
func (t *Task) Withdraw() bool {
	if !t.state.IsActive() {
		return false
	}
	t.state = StateReleased
	t.claimedBy = ""
	t.claimExpiry = time.Time{}
	return true
}

func (t *Task) requeue() {
	t.state = StateQueued
	t.claimedBy = ""
	t.claimExpiry = time.Time{}
}
