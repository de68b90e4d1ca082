// Package services provides domain services that decide business rules
// spanning the order aggregate and the workflow definition.
//
// The package includes:
//   - TransitionPolicy: resolves a requested transition against an order's
//     current status, checks the acting role and derives the follow-up task
//
// Services here are pure: they never read or write storage. Application
// command handlers load state, ask the policy for a plan and persist it.
package services
