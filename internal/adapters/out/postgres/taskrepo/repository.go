package taskrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// skipLocked makes concurrent claimers pass over rows another transaction holds.
var skipLocked = clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}

// GormTaskRepository implements ports.TaskQueue using GORM.
//
// The *gorm.DB must be opened with TranslateError so the active-task index
// violation surfaces as gorm.ErrDuplicatedKey.
type GormTaskRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// Option configures a GormTaskRepository.
type Option func(*GormTaskRepository)

// WithClock replaces time.Now for leases and timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *GormTaskRepository) {
		r.now = now
	}
}

// NewGormTaskRepository creates a new GORM task repository.
func NewGormTaskRepository(db *gorm.DB, opts ...Option) *GormTaskRepository {
	r := &GormTaskRepository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Settle retires the order's stale task and inserts the next one in one
// transaction, holding the order's settlement row lock.
func (r *GormTaskRepository) Settle(
	ctx context.Context,
	orderID kernel.UUID,
	version uint64,
	next *task.Step,
) (task.Settlement, error) {
	if err := orderID.Validate(); err != nil {
		return task.Settlement{}, err
	}

	var settlement task.Settlement
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockSettlement(tx, orderID)
		if err != nil {
			return err
		}
		if row.Closed || row.Version >= version {
			settlement.Skipped = true
			return nil
		}

		withdrawn, err := withdrawActive(tx, orderID)
		if err != nil {
			return err
		}
		settlement.Withdrawn = withdrawn > 0

		if next != nil {
			t, err := task.NewTask(kernel.NewUUID(), orderID, version, next.Transition, next.Role, r.now())
			if err != nil {
				return err
			}
			dto := fromDomain(t)
			if err = tx.Create(&dto).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("%w: order %s", task.ErrDuplicateActiveTask, orderID)
				}
				return err
			}
			settlement.Queued = t.ID()
		}

		return tx.Model(&row).Update("version", version).Error
	})
	if err != nil {
		return task.Settlement{}, err
	}
	return settlement, nil
}

// Claim locks the lowest-seq queued task of role, skipping rows other
// claimers hold, and leases it to agentID.
func (r *GormTaskRepository) Claim(
	ctx context.Context,
	role kernel.Role,
	agentID string,
	lease time.Duration,
) (*task.Task, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}

	var claimed *task.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dto TaskDTO
		err := tx.Clauses(skipLocked).
			Where("required_role = ? AND state = ?", role.String(), task.StateQueued.String()).
			Order("seq").
			Take(&dto).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		t, err := toDomain(dto)
		if err != nil {
			return err
		}
		if err = t.Claim(agentID, r.now(), lease); err != nil {
			return err
		}
		if err = save(tx, t); err != nil {
			return err
		}
		claimed = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Complete finishes a task claimed by agentID.
func (r *GormTaskRepository) Complete(ctx context.Context, taskID kernel.UUID, agentID string) (task.Completion, error) {
	var completion task.Completion
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		already, err := t.Complete(agentID, r.now())
		if err != nil {
			return err
		}
		completion = task.Completion{Task: t, AlreadyCompleted: already}
		if already {
			return nil
		}
		return save(tx, t)
	})
	if err != nil {
		return task.Completion{}, err
	}
	return completion, nil
}

// Release returns a task claimed by agentID to its queue. The row keeps its
// seq, so the task regains its original position.
func (r *GormTaskRepository) Release(ctx context.Context, taskID kernel.UUID, agentID string) (*task.Task, error) {
	var released *task.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if err = t.Release(agentID); err != nil {
			return err
		}
		released = t
		return save(tx, t)
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// ReclaimExpired requeues claims whose lease ended at or before now.
func (r *GormTaskRepository) ReclaimExpired(ctx context.Context) (int, error) {
	now := r.now()
	reclaimed := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dtos []TaskDTO
		err := tx.Clauses(skipLocked).
			Where("state = ? AND claim_expiry <= ?", task.StateClaimed.String(), now.UTC()).
			Find(&dtos).Error
		if err != nil {
			return err
		}
		for _, dto := range dtos {
			t, convErr := toDomain(dto)
			if convErr != nil {
				return convErr
			}
			if !t.Expire(now) {
				continue
			}
			if err = save(tx, t); err != nil {
				return err
			}
			reclaimed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reclaimed, nil
}

// Withdraw retires the order's active task and closes the order to later
// settles.
func (r *GormTaskRepository) Withdraw(ctx context.Context, orderID kernel.UUID) (int, error) {
	withdrawn := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockSettlement(tx, orderID)
		if err != nil {
			return err
		}
		if withdrawn, err = withdrawActive(tx, orderID); err != nil {
			return err
		}
		return tx.Model(&row).Update("closed", true).Error
	})
	if err != nil {
		return 0, err
	}
	return withdrawn, nil
}

// Status counts queued and claimed tasks per role.
func (r *GormTaskRepository) Status(ctx context.Context) (task.QueueStatus, error) {
	var rows []struct {
		RequiredRole string
		State        string
		Count        int
	}
	err := r.db.WithContext(ctx).Model(&TaskDTO{}).
		Select("required_role, state, count(*) AS count").
		Where("state IN ?", []string{task.StateQueued.String(), task.StateClaimed.String()}).
		Group("required_role, state").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	status := task.NewQueueStatus()
	for _, row := range rows {
		role, parseErr := kernel.ParseRole(row.RequiredRole)
		if parseErr != nil {
			return nil, parseErr
		}
		counts := status[role]
		if row.State == task.StateQueued.String() {
			counts.Queued = row.Count
		} else {
			counts.Claimed = row.Count
		}
		status[role] = counts
	}
	return status, nil
}

// Get retrieves a task by ID.
func (r *GormTaskRepository) Get(ctx context.Context, taskID kernel.UUID) (*task.Task, error) {
	var dto TaskDTO
	if err := r.db.WithContext(ctx).Take(&dto, "id = ?", taskID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("task", taskID.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

// lockSettlement creates the order's settlement row on first use and locks it.
func lockSettlement(tx *gorm.DB, orderID kernel.UUID) (SettlementDTO, error) {
	row := SettlementDTO{OrderID: orderID.Bytes()}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return SettlementDTO{}, err
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&row, "order_id = ?", orderID.Bytes()).Error; err != nil {
		return SettlementDTO{}, err
	}
	return row, nil
}

// withdrawActive marks the order's queued or claimed tasks released.
func withdrawActive(tx *gorm.DB, orderID kernel.UUID) (int, error) {
	var dtos []TaskDTO
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ? AND state IN ?", orderID.Bytes(),
			[]string{task.StateQueued.String(), task.StateClaimed.String()}).
		Find(&dtos).Error
	if err != nil {
		return 0, err
	}

	withdrawn := 0
	for _, dto := range dtos {
		t, err := toDomain(dto)
		if err != nil {
			return 0, err
		}
		if !t.Withdraw() {
			continue
		}
		if err = save(tx, t); err != nil {
			return 0, err
		}
		withdrawn++
	}
	return withdrawn, nil
}

func lockTask(tx *gorm.DB, taskID kernel.UUID) (*task.Task, error) {
	var dto TaskDTO
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&dto, "id = ?", taskID.Bytes()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewObjectNotFoundError("task", taskID.String())
	}
	if err != nil {
		return nil, err
	}
	return toDomain(dto)
}

// save writes the mutable columns of t. Seq and the identity columns are
// never rewritten.
func save(tx *gorm.DB, t *task.Task) error {
	dto := fromDomain(t)
	return tx.Model(&TaskDTO{ID: dto.ID}).Select(mutableColumns).Updates(&dto).Error
}
