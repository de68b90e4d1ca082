package commands_test

import (
	"testing"
	"time"

	"warehouse/internal/core/application/usecases/commands"
	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/core/domain/services"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testPolicy(t *testing.T) services.TransitionPolicy {
	t.Helper()
	def, err := workflow.Default()
	require.NoError(t, err)
	policy, err := services.NewTransitionPolicy(def)
	require.NoError(t, err)
	return policy
}

// orderAt builds an order whose last history entry is status at version.
func orderAt(t *testing.T, id kernel.UUID, status order.Status, version uint64) *order.Order {
	t.Helper()
	history := []order.StatusChange{{Status: order.Pending, At: fixedNow, ActorRole: kernel.RoleCustomer}}
	if status != order.Pending {
		history = append(history, order.StatusChange{Status: status, At: fixedNow, ActorRole: kernel.RoleFulfillment})
	}
	o, err := order.RestoreOrder(id, "Ada", []string{"widget"}, "", status, history,
		order.Milestones{order.MilestonePlaced: fixedNow}, version, fixedNow)
	require.NoError(t, err)
	return o
}

// claimedTask builds a task queued for the order at orderVersion and leased to agent.
func claimedTask(
	t *testing.T,
	orderID kernel.UUID,
	orderVersion uint64,
	transition workflow.TransitionName,
	agent string,
) *task.Task {
	t.Helper()
	tk, err := task.RestoreTask(kernel.NewUUID(), orderID, orderVersion, transition, kernel.RoleFulfillment, task.StateClaimed,
		agent, fixedNow.Add(time.Minute), fixedNow, "", time.Time{})
	require.NoError(t, err)
	return tk
}

func newTransitionHandler(
	t *testing.T,
	orders *MockOrderStore,
	tasks *MockTaskQueue,
	events *MockEventPublisher,
	opts ...commands.TransitionOption,
) *commands.RequestTransitionCommandHandler {
	t.Helper()
	return commands.NewRequestTransitionCommandHandler(orders, tasks, testPolicy(t), events, nopMetrics{}, discardLogger(), opts...)
}
