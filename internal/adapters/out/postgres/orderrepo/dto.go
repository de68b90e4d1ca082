// Package orderrepo stores order aggregates in PostgreSQL through GORM.
//
// Tables:
//
//	orders                 one row per order, version guarded
//	order_status_changes   append-only status history
//	order_milestones       first time each milestone was reached
package orderrepo

import (
	"errors"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OrderDTO is the orders row.
type OrderDTO struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	CustomerName  string            `gorm:"not null"`
	Items         pq.StringArray    `gorm:"type:text[];not null"`
	Notes         string            `gorm:"type:text"`
	Status        string            `gorm:"type:varchar(16);not null;index"`
	Version       uint64            `gorm:"not null"`
	CreatedAt     time.Time         `gorm:"not null;index"`
	StatusChanges []StatusChangeDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Milestones    []MilestoneDTO    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for orders.
func (OrderDTO) TableName() string {
	return "orders"
}

// StatusChangeDTO is one history row. Seq orders entries of the same order.
type StatusChangeDTO struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Status    string    `gorm:"type:varchar(16);not null"`
	At        time.Time `gorm:"not null"`
	Notes     string    `gorm:"type:text"`
	ActorRole string    `gorm:"type:varchar(16);not null"`
}

// TableName specifies the database table name for status history.
func (StatusChangeDTO) TableName() string {
	return "order_status_changes"
}

// MilestoneDTO records the first time an order reached a milestone.
type MilestoneDTO struct {
	OrderID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Milestone string    `gorm:"type:varchar(16);primaryKey"`
	ReachedAt time.Time `gorm:"not null"`
}

// TableName specifies the database table name for milestones.
func (MilestoneDTO) TableName() string {
	return "order_milestones"
}

func fromDomain(o *order.Order) OrderDTO {
	id := o.ID().Bytes()

	history := o.History()
	changes := make([]StatusChangeDTO, 0, len(history))
	for _, h := range history {
		changes = append(changes, StatusChangeDTO{
			OrderID:   id,
			Status:    h.Status.String(),
			At:        h.At.UTC(),
			Notes:     h.Notes,
			ActorRole: h.ActorRole.String(),
		})
	}

	milestones := make([]MilestoneDTO, 0, len(o.Milestones()))
	for m, at := range o.Milestones() {
		milestones = append(milestones, MilestoneDTO{OrderID: id, Milestone: string(m), ReachedAt: at.UTC()})
	}

	return OrderDTO{
		ID:            id,
		CustomerName:  o.CustomerName(),
		Items:         pq.StringArray(o.Items()),
		Notes:         o.Notes(),
		Status:        o.Status().String(),
		Version:       o.Version(),
		CreatedAt:     o.CreatedAt().UTC(),
		StatusChanges: changes,
		Milestones:    milestones,
	}
}

// toDomain expects StatusChanges sorted by Seq.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, errors.Join(order.ErrInvalidCurrentState, err)
	}

	history := make([]order.StatusChange, 0, len(dto.StatusChanges))
	for _, c := range dto.StatusChanges {
		s, parseErr := order.ParseStatus(c.Status)
		if parseErr != nil {
			return nil, parseErr
		}
		role, parseErr := kernel.ParseRole(c.ActorRole)
		if parseErr != nil {
			return nil, parseErr
		}
		history = append(history, order.StatusChange{Status: s, At: c.At.UTC(), Notes: c.Notes, ActorRole: role})
	}

	milestones := make(order.Milestones, len(dto.Milestones))
	for _, m := range dto.Milestones {
		milestones[order.Milestone(m.Milestone)] = m.ReachedAt.UTC()
	}

	return order.RestoreOrder(id, dto.CustomerName, dto.Items, dto.Notes, status, history, milestones,
		dto.Version, dto.CreatedAt)
}
