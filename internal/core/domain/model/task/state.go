package task

import (
	"fmt"
	"strings"

	"warehouse/internal/pkg/errs"
)

// State is the lifecycle position of a task.
type State int

const (
	StateUnknown State = iota
	StateQueued
	StateClaimed
	StateCompleted
	StateReleased
)

func getStateStrings() map[State]string {
	return map[State]string{
		StateUnknown:   "unknown",
		StateQueued:    "queued",
		StateClaimed:   "claimed",
		StateCompleted: "completed",
		StateReleased:  "released",
	}
}

// ParseState converts a stored name to a State.
func ParseState(s string) (State, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for state, str := range getStateStrings() {
		if state != StateUnknown && str == name {
			return state, nil
		}
	}
	return StateUnknown, errs.NewValueIsInvalidErrorWithCause("state", fmt.Errorf("%q is not a known task state", s))
}

func (s State) String() string {
	if str, ok := getStateStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsActive reports whether the task still blocks another task for its order.
func (s State) IsActive() bool {
	return s == StateQueued || s == StateClaimed
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if s == StateUnknown {
		return nil, errs.NewValueIsInvalidError("state")
	}
	return []byte(s.String()), nil
}
