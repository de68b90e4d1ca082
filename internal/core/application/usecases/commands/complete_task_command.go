package commands

import (
	"errors"
	"strings"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/pkg/errs"
	"warehouse/internal/pkg/guard"
)

var ErrCompleteTaskCommandIsNotConstructed = errors.New(
	"CompleteTaskCommand must be created via NewCompleteTaskCommand constructor",
)

// CompleteTaskCommand reports a claimed task as done by the claiming agent.
type CompleteTaskCommand struct { //nolint:recvcheck //using for validation
	taskID  kernel.UUID
	agentID string
	role    kernel.Role

	guard guard.ConstructorGuard
}

// NewCompleteTaskCommand requires a task id, the completing agent and its role.
func NewCompleteTaskCommand(taskID kernel.UUID, agentID string, role kernel.Role) (CompleteTaskCommand, error) {
	agentID = strings.TrimSpace(agentID)
	var agentErr error
	if agentID == "" {
		agentErr = errs.NewValueIsRequiredError("agent_id")
	}
	if err := errors.Join(taskID.Validate(), agentErr, role.Validate()); err != nil {
		return CompleteTaskCommand{}, err
	}
	return CompleteTaskCommand{taskID: taskID, agentID: agentID, role: role, guard: guard.NewConstructorGuard()}, nil
}

func (c CompleteTaskCommand) Validate() error {
	return c.guard.Validate(ErrCompleteTaskCommandIsNotConstructed)
}

func (c CompleteTaskCommand) TaskID() kernel.UUID { return c.taskID }
func (c CompleteTaskCommand) AgentID() string     { return c.agentID }
func (c CompleteTaskCommand) Role() kernel.Role   { return c.role }
