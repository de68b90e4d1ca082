package commands

import (
	"errors"
	"strings"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/pkg/errs"
	"warehouse/internal/pkg/guard"
)

var ErrClaimTaskCommandIsNotConstructed = errors.New(
	"ClaimTaskCommand must be created via NewClaimTaskCommand constructor",
)

// MaxLease caps the lease an agent may ask for.
const MaxLease = time.Hour

// ClaimTaskCommand asks for the oldest queued task of a role.
type ClaimTaskCommand struct { //nolint:recvcheck //using for validation
	role    kernel.Role
	agentID string
	lease   time.Duration

	guard guard.ConstructorGuard
}

// NewClaimTaskCommand validates the claim. A zero lease means the handler's
// default lease.
func NewClaimTaskCommand(role kernel.Role, agentID string, lease time.Duration) (ClaimTaskCommand, error) {
	cmd := ClaimTaskCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		cmd.setRole(role),
		cmd.setAgentID(agentID),
		cmd.setLease(lease),
	); err != nil {
		return ClaimTaskCommand{}, err
	}
	return cmd, nil
}

func (c ClaimTaskCommand) Validate() error {
	return c.guard.Validate(ErrClaimTaskCommandIsNotConstructed)
}

func (c ClaimTaskCommand) Role() kernel.Role    { return c.role }
func (c ClaimTaskCommand) AgentID() string      { return c.agentID }
func (c ClaimTaskCommand) Lease() time.Duration { return c.lease }

func (c *ClaimTaskCommand) setRole(role kernel.Role) error {
	if err := role.Validate(); err != nil {
		return err
	}
	c.role = role
	return nil
}

func (c *ClaimTaskCommand) setAgentID(agentID string) error {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return errs.NewValueIsRequiredError("agent_id")
	}
	c.agentID = agentID
	return nil
}

func (c *ClaimTaskCommand) setLease(lease time.Duration) error {
	if lease < 0 || lease > MaxLease {
		return errs.NewValueIsOutOfRangeError("lease", lease, time.Duration(0), MaxLease)
	}
	c.lease = lease
	return nil
}
