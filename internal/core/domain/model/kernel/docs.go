// Package kernel provides the shared primitives of the warehouse domain.
//
// The package includes:
//   - UUID: identifier value object for orders and tasks
//   - Role: the closed set of actor roles (customer, fulfillment)
//
// Values are immutable and safe for concurrent use. Zero values are invalid
// and fail Validate, so they cannot silently flow into the core.
package kernel
