// Package workflow holds the order state machine: the statuses an order may
// take, the named transitions between them and the role that owns each
// transition.
//
// A Definition is loaded once at startup, from the embedded workflow.yaml or
// any other document passed to Load, and is read-only afterwards. Callers
// receive it explicitly; there is no package-level instance.
//
// Example:
//
//	def, err := workflow.Default()
//	if err != nil {
//	    return err
//	}
//	t, err := def.Resolve(order.Pending, "confirm")
//	if err != nil {
//	    return err // workflow.ErrUnknownTransition
//	}
//	if err := t.Authorize(kernel.RoleCustomer); err != nil {
//	    return err // workflow.ErrPermissionDenied
//	}
package workflow
