package orderrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/pkg/errs"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// snapshot reads an order and its children from one consistent view.
var snapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// GormOrderRepository implements ports.OrderStore using GORM.
//
// The *gorm.DB must be opened with TranslateError so duplicate ids surface
// as gorm.ErrDuplicatedKey.
type GormOrderRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// Option configures a GormOrderRepository.
type Option func(*GormOrderRepository)

// WithClock replaces time.Now for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *GormOrderRepository) {
		r.now = now
	}
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, opts ...Option) *GormOrderRepository {
	r := &GormOrderRepository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add saves a new order together with its seeded history and milestones.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", order.ErrOrderAlreadyExists, aggregate.ID())
		}
		return err
	}
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var o *order.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loadErr error
		o, loadErr = load(tx, id)
		return loadErr
	}, snapshot)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// List retrieves all orders, oldest first.
func (r *GormOrderRepository) List(ctx context.Context) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return withChildren(tx).Order("created_at, id").Find(&dtos).Error
	}, snapshot)
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// UpdateStatus applies a version-guarded status change in one transaction.
// The order row is locked and the change is made on the loaded aggregate, so
// concurrent writers are serialized and the loser sees the bumped version.
func (r *GormOrderRepository) UpdateStatus(
	ctx context.Context,
	id kernel.UUID,
	expectedVersion uint64,
	newStatus order.Status,
	note string,
	actor kernel.Role,
) (*order.Order, error) {
	if err := errors.Join(id.Validate(), newStatus.Validate(), actor.Validate()); err != nil {
		return nil, err
	}

	at := r.now().UTC()
	var updated *order.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := lockAndLoad(tx, id)
		if err != nil {
			return err
		}
		if err = o.ChangeStatus(expectedVersion, newStatus, note, actor, at); err != nil {
			return err
		}

		result := tx.Model(&OrderDTO{}).
			Where("id = ? AND version = ?", id.Bytes(), expectedVersion).
			Updates(map[string]any{
				"status":  o.Status().String(),
				"version": o.Version(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.NewVersionConflictError("order", id.String(), expectedVersion)
		}

		history := o.History()
		last := history[len(history)-1]
		change := StatusChangeDTO{
			OrderID:   id.Bytes(),
			Status:    last.Status.String(),
			At:        last.At,
			Notes:     last.Notes,
			ActorRole: last.ActorRole.String(),
		}
		if err = tx.Create(&change).Error; err != nil {
			return err
		}

		if m, ok := newStatus.Milestone(); ok {
			milestone := MilestoneDTO{OrderID: id.Bytes(), Milestone: string(m), ReachedAt: o.Milestones()[m]}
			if err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&milestone).Error; err != nil {
				return err
			}
		}

		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateDetails edits customer name, items and notes under the row lock.
func (r *GormOrderRepository) UpdateDetails(ctx context.Context, id kernel.UUID, u order.DetailsUpdate) (*order.Order, error) {
	if err := errors.Join(id.Validate(), u.Validate()); err != nil {
		return nil, err
	}

	var updated *order.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := lockAndLoad(tx, id)
		if err != nil {
			return err
		}
		if err = o.UpdateDetails(u); err != nil {
			return err
		}
		err = tx.Model(&OrderDTO{}).Where("id = ?", id.Bytes()).Updates(map[string]any{
			"customer_name": o.CustomerName(),
			"items":         pq.StringArray(o.Items()),
			"notes":         o.Notes(),
		}).Error
		if err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the order row; history and milestones cascade.
func (r *GormOrderRepository) Delete(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&OrderDTO{}, "id = ?", id.Bytes())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	return nil
}

func withChildren(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("StatusChanges", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Preload("Milestones")
}

func load(tx *gorm.DB, id kernel.UUID) (*order.Order, error) {
	var dto OrderDTO
	if err := withChildren(tx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

// lockAndLoad takes the order row lock, then loads the aggregate.
func lockAndLoad(tx *gorm.DB, id kernel.UUID) (*order.Order, error) {
	var row OrderDTO
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&row, "id = ?", id.Bytes()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	if err != nil {
		return nil, err
	}
	return load(tx, id)
}
