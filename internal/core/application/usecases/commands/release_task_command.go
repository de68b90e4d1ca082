package commands

import (
	"errors"
	"strings"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/pkg/errs"
	"warehouse/internal/pkg/guard"
)

var ErrReleaseTaskCommandIsNotConstructed = errors.New(
	"ReleaseTaskCommand must be created via NewReleaseTaskCommand constructor",
)

// ReleaseTaskCommand hands a claimed task back to its queue.
type ReleaseTaskCommand struct { //nolint:recvcheck //using for validation
	taskID  kernel.UUID
	agentID string
	role    kernel.Role

	guard guard.ConstructorGuard
}

// NewReleaseTaskCommand requires a task id, the releasing agent and its role.
func NewReleaseTaskCommand(taskID kernel.UUID, agentID string, role kernel.Role) (ReleaseTaskCommand, error) {
	agentID = strings.TrimSpace(agentID)
	var agentErr error
	if agentID == "" {
		agentErr = errs.NewValueIsRequiredError("agent_id")
	}
	if err := errors.Join(taskID.Validate(), agentErr, role.Validate()); err != nil {
		return ReleaseTaskCommand{}, err
	}
	return ReleaseTaskCommand{taskID: taskID, agentID: agentID, role: role, guard: guard.NewConstructorGuard()}, nil
}

func (c ReleaseTaskCommand) Validate() error {
	return c.guard.Validate(ErrReleaseTaskCommandIsNotConstructed)
}

func (c ReleaseTaskCommand) TaskID() kernel.UUID { return c.taskID }
func (c ReleaseTaskCommand) AgentID() string     { return c.agentID }
func (c ReleaseTaskCommand) Role() kernel.Role   { return c.role }
