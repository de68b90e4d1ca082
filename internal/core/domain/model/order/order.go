package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned for orders not built by NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrVersionConflict is returned when a conditional status update carries a stale version.
	ErrVersionConflict = errs.ErrVersionConflict

	// ErrInvalidCurrentState is returned when an order's stored status is not part of the workflow.
	ErrInvalidCurrentState = errors.New("order is in an invalid current state")

	// ErrOrderAlreadyExists is returned by stores when adding an id that is already stored.
	ErrOrderAlreadyExists = errors.New("order already exists")

	// ErrHistoryIsInconsistent is returned when restored history does not end in the current status.
	ErrHistoryIsInconsistent = errors.New("status history does not end in current status")
)

// InitialVersion is the version of a freshly placed order.
const InitialVersion uint64 = 1

// Order is the aggregate root of a warehouse order.
//
// Invariants:
//   - status is a valid Status
//   - history is non-empty and its last entry's status equals status
//   - milestones are stamped on first occurrence and never overwritten
//   - version grows by exactly one per accepted status change
//
// Status changes go through ChangeStatus, which is the in-memory mirror of
// the store's conditional update.
type Order struct {
	id           kernel.UUID
	customerName string
	items        []string
	notes        string
	status       Status
	history      []StatusChange
	milestones   Milestones
	version      uint64
	createdAt    time.Time

	isConstructed bool
}

// NewOrder places an order in Pending, seeding history[0] and the placed milestone.
//
// Example:
//
//	o, err := order.NewOrder(kernel.NewUUID(), "Ada", []string{"widget"}, "", time.Now())
//	if err != nil {
//	    return err
//	}
//	_ = o.Status() // order.Pending
func NewOrder(id kernel.UUID, customerName string, items []string, notes string, now time.Time) (*Order, error) {
	o := &Order{
		status:        Pending,
		notes:         notes,
		version:       InitialVersion,
		createdAt:     now.UTC(),
		milestones:    Milestones{},
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerName(customerName),
		o.setItems(items),
	); err != nil {
		return nil, err
	}

	placedNote := notes
	if placedNote == "" {
		placedNote = "Order placed"
	}
	o.history = []StatusChange{{Status: Pending, At: o.createdAt, Notes: placedNote, ActorRole: kernel.RoleCustomer}}
	o.milestones.stampFirst(MilestonePlaced, o.createdAt)

	return o, nil
}

// RestoreOrder rebuilds an order from persistence and re-checks its invariants.
func RestoreOrder(
	id kernel.UUID,
	customerName string,
	items []string,
	notes string,
	status Status,
	history []StatusChange,
	milestones Milestones,
	version uint64,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		notes:         notes,
		createdAt:     createdAt.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerName(customerName),
		o.setItems(items),
		status.Validate(),
	); err != nil {
		return nil, err
	}
	if len(history) == 0 || history[len(history)-1].Status != status {
		return nil, fmt.Errorf("%w: order %s is %s", ErrHistoryIsInconsistent, id, status)
	}
	if version < InitialVersion {
		return nil, errs.NewValueIsInvalidErrorWithCause("version", fmt.Errorf("%d is lower than %d", version, InitialVersion))
	}

	o.status = status
	o.history = slices.Clone(history)
	o.milestones = milestones.Clone()
	o.version = version
	return o, nil
}

// Validate ensures the order was built through a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// ID returns the order id.
func (o *Order) ID() kernel.UUID { return o.id }

// CustomerName returns the trimmed customer name.
func (o *Order) CustomerName() string { return o.customerName }

// Items returns a copy of the non-blank items.
func (o *Order) Items() []string { return slices.Clone(o.items) }

// Notes returns the free-text order notes, possibly empty.
func (o *Order) Notes() string { return o.notes }

// Status returns the current workflow status.
func (o *Order) Status() Status { return o.status }

// Version returns the count of accepted status changes plus one.
func (o *Order) Version() uint64 { return o.version }

// CreatedAt returns the placement time in UTC.
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// Milestones returns a copy of the first-occurrence timestamps.
func (o *Order) Milestones() Milestones { return o.milestones.Clone() }

// History returns a copy of the status history, oldest first.
func (o *Order) History() []StatusChange {
	return slices.Clone(o.history)
}

// ChangeStatus applies an accepted transition: it checks expectedVersion,
// appends a history entry, stamps the milestone on first occurrence and bumps
// the version. It returns ErrVersionConflict when expectedVersion is stale.
// Legality of the move is decided by the caller against the workflow.
func (o *Order) ChangeStatus(
	expectedVersion uint64,
	newStatus Status,
	note string,
	actor kernel.Role,
	at time.Time,
) error {
	if o.version != expectedVersion {
		return errs.NewVersionConflictError("order", o.id, expectedVersion)
	}
	if err := errors.Join(newStatus.Validate(), actor.Validate()); err != nil {
		return err
	}

	at = at.UTC()
	o.status = newStatus
	o.history = append(o.history, StatusChange{Status: newStatus, At: at, Notes: note, ActorRole: actor})
	if m, ok := newStatus.Milestone(); ok {
		o.milestones.stampFirst(m, at)
	}
	o.version++
	return nil
}

// UpdateDetails applies an edit of the descriptive fields. Status, history,
// milestones and version are left unchanged.
func (o *Order) UpdateDetails(u DetailsUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.CustomerName != nil {
		if err := o.setCustomerName(*u.CustomerName); err != nil {
			return err
		}
	}
	if u.Items != nil {
		if err := o.setItems(u.Items); err != nil {
			return err
		}
	}
	if u.Notes != nil {
		o.notes = *u.Notes
	}
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("customer_name")
	}
	o.customerName = name
	return nil
}

func (o *Order) setItems(items []string) error {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	if len(cleaned) == 0 {
		return errs.NewValueIsRequiredErrorWithCause("items", errors.New("at least one item is required"))
	}
	o.items = cleaned
	return nil
}
