package commands

import (
	"errors"

	"warehouse/internal/pkg/guard"
)

var ErrReclaimExpiredTasksCommandIsNotConstructed = errors.New(
	"ReclaimExpiredTasksCommand must be created via NewReclaimExpiredTasksCommand constructor",
)

// ReclaimExpiredTasksCommand sweeps lapsed claims back into their queues.
type ReclaimExpiredTasksCommand struct {
	guard guard.ConstructorGuard
}

func NewReclaimExpiredTasksCommand() ReclaimExpiredTasksCommand {
	return ReclaimExpiredTasksCommand{guard: guard.NewConstructorGuard()}
}

func (c ReclaimExpiredTasksCommand) Validate() error {
	return c.guard.Validate(ErrReclaimExpiredTasksCommandIsNotConstructed)
}
