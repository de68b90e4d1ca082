// Package guard detects zero-value commands and queries that bypassed their constructors.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the caller passes a nil error.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded in values that must only be built by a constructor.
// Its zero value fails validation; NewConstructorGuard marks the value as constructed.
//
// Example:
//
//	type ClaimTaskCommand struct {
//	    role  kernel.Role
//	    guard guard.ConstructorGuard
//	}
//
//	func (c ClaimTaskCommand) Validate() error {
//	    return c.guard.Validate(ErrClaimTaskCommandIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marked as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when nil)
// if the guard is a zero value, nil otherwise.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
