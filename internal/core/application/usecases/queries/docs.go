// Package queries contains read-only operations. Handlers read through the
// storage ports so the same queries serve every backend.
package queries
