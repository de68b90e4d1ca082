// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// Every command is built by its constructor, validated by its handler and
// applied through the ports; there is no transaction spanning ports.
package commands

import "time"

// DefaultLease is used when a claim does not ask for a lease duration.
const DefaultLease = 5 * time.Minute

// DefaultMaxAttempts bounds how often a transition is retried after a version conflict.
const DefaultMaxAttempts = 3
