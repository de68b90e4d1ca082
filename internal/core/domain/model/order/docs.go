// Package order provides the Order aggregate of the warehouse service.
//
// The package includes:
//   - Order: identity, contents, current status, status history, fulfillment
//     milestones and the optimistic-concurrency version
//   - Status: the lifecycle states (pending through delivered, plus cancelled and returned)
//   - StatusChange and Milestones: the timeline data exposed by the timeline view
//
// Key business rules:
//   - An order is placed in Pending with one history entry and the placed milestone
//   - Every accepted status change appends history, stamps the milestone of the new
//     status only on first occurrence, and increments the version by one
//   - A change against a stale version fails with ErrVersionConflict
//
// Transition legality and role checks live in the workflow package; this
// package only keeps the aggregate consistent.
package order
