// Package taskrepo keeps the fulfillment task queue in PostgreSQL.
//
// Claims lock the oldest queued row of a role with FOR UPDATE SKIP LOCKED,
// so concurrent claimers never wait on or share a row. A partial unique
// index on order_id over active states enforces one active task per order;
// it is created by ActiveTaskIndexSQL during migration. Settles serialize per
// order on a task_settlements row that remembers the settled order version.
package taskrepo

import (
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/domain/model/workflow"

	"github.com/google/uuid"
)

// ActiveTaskIndexSQL creates the one-active-task-per-order index.
const ActiveTaskIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_active_order
ON tasks (order_id) WHERE state IN ('queued', 'claimed')`

// TaskDTO is the tasks row. Seq orders queued tasks of a role.
type TaskDTO struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Seq          int64      `gorm:"autoIncrement;not null;index"`
	OrderID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderVersion uint64     `gorm:"not null"`
	Transition   string     `gorm:"type:varchar(32);not null"`
	RequiredRole string     `gorm:"type:varchar(16);not null;index:idx_tasks_role_state"`
	State        string     `gorm:"type:varchar(16);not null;index:idx_tasks_role_state"`
	ClaimedBy    string     `gorm:"type:varchar(128)"`
	ClaimExpiry  *time.Time `gorm:"index"`
	CreatedAt    time.Time  `gorm:"not null"`
	CompletedBy  string     `gorm:"type:varchar(128)"`
	CompletedAt  *time.Time
}

// TableName specifies the database table name for tasks.
func (TaskDTO) TableName() string {
	return "tasks"
}

// SettlementDTO is the settlements row: the last order version whose task
// was settled. Settles lock this row, so they run one at a time per order.
type SettlementDTO struct {
	OrderID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Version uint64    `gorm:"not null"`
	Closed  bool      `gorm:"not null;default:false"`
}

// TableName specifies the database table name for task settlements.
func (SettlementDTO) TableName() string {
	return "task_settlements"
}

// mutableColumns are written back after a domain state change.
var mutableColumns = []string{"state", "claimed_by", "claim_expiry", "completed_by", "completed_at"}

func fromDomain(t *task.Task) TaskDTO {
	return TaskDTO{
		ID:           t.ID().Bytes(),
		OrderID:      t.OrderID().Bytes(),
		OrderVersion: t.OrderVersion(),
		Transition:   t.Transition().String(),
		RequiredRole: t.RequiredRole().String(),
		State:        t.State().String(),
		ClaimedBy:    t.ClaimedBy(),
		ClaimExpiry:  optionalTime(t.ClaimExpiry()),
		CreatedAt:    t.CreatedAt().UTC(),
		CompletedBy:  t.CompletedBy(),
		CompletedAt:  optionalTime(t.CompletedAt()),
	}
}

func toDomain(dto TaskDTO) (*task.Task, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromGoogle(dto.OrderID)
	if err != nil {
		return nil, err
	}
	role, err := kernel.ParseRole(dto.RequiredRole)
	if err != nil {
		return nil, err
	}
	state, err := task.ParseState(dto.State)
	if err != nil {
		return nil, err
	}

	return task.RestoreTask(id, orderID, dto.OrderVersion, workflow.TransitionName(dto.Transition), role, state,
		dto.ClaimedBy, derefTime(dto.ClaimExpiry), dto.CreatedAt.UTC(), dto.CompletedBy, derefTime(dto.CompletedAt))
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
