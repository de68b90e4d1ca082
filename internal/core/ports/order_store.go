// Package ports defines the contracts between the application core and the
// storage, messaging and telemetry adapters.
package ports

import (
	"context"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
)

// OrderStore persists order aggregates. Every method is atomic on its own;
// there is no transaction spanning calls.
type OrderStore interface {
	// Add persists a freshly placed order. The order must be valid and new.
	Add(ctx context.Context, o *order.Order) error

	// Get returns one consistent snapshot of the order: status, version,
	// history and milestones are read under the same atomic boundary.
	// Returns errs.ErrObjectNotFound for unknown ids.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// List returns all orders, oldest first.
	List(ctx context.Context) ([]*order.Order, error)

	// UpdateStatus is the only way to change an order's status. It writes
	// only if the stored version equals expectedVersion; the write appends
	// a history entry, stamps the milestone on first occurrence and bumps
	// the version by one.
	//
	// Returns order.ErrVersionConflict on a stale version and
	// errs.ErrObjectNotFound for unknown ids.
	//
	// Example:
	//   updated, err := store.UpdateStatus(ctx, o.ID(), o.Version(), order.Confirmed, "", kernel.RoleFulfillment)
	//   if errors.Is(err, order.ErrVersionConflict) {
	//       // re-read and retry
	//   }
	UpdateStatus(
		ctx context.Context,
		id kernel.UUID,
		expectedVersion uint64,
		newStatus order.Status,
		note string,
		actor kernel.Role,
	) (*order.Order, error)

	// UpdateDetails edits the descriptive fields of a stored order. Status,
	// history, milestones and version are untouched.
	// Returns errs.ErrObjectNotFound for unknown ids.
	UpdateDetails(ctx context.Context, id kernel.UUID, u order.DetailsUpdate) (*order.Order, error)

	// Delete removes the order. Returns errs.ErrObjectNotFound for unknown ids.
	Delete(ctx context.Context, id kernel.UUID) error
}
