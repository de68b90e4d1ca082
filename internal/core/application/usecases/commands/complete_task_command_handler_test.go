package commands_test

import (
	"errors"
	"testing"
	"time"

	"warehouse/internal/core/application/usecases/commands"
	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCompleteHandler(t *testing.T, orders *MockOrderStore, tasks *MockTaskQueue, events *MockEventPublisher) commands.CompleteTaskCommandHandler {
	t.Helper()
	return commands.NewCompleteTaskCommandHandler(tasks, orders, newTransitionHandler(t, orders, tasks, events), nopMetrics{}, discardLogger())
}

func completedCopy(t *testing.T, tk *task.Task, agent string) *task.Task {
	t.Helper()
	done, err := task.RestoreTask(tk.ID(), tk.OrderID(), tk.OrderVersion(), tk.Transition(), tk.RequiredRole(), task.StateCompleted,
		"", time.Time{}, tk.CreatedAt(), agent, fixedNow)
	require.NoError(t, err)
	return done
}

func TestNewCompleteTaskCommand(t *testing.T) {
	_, err := commands.NewCompleteTaskCommand(kernel.NewUUID(), " ", kernel.RoleFulfillment)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = commands.NewCompleteTaskCommand(kernel.NewUUID(), "agent-1", kernel.RoleUnknown)
	require.ErrorIs(t, err, kernel.ErrUnknownRole)
}

func TestCompleteTaskCommandHandler_Handle_AppliesTaskTransition(t *testing.T) {
	orderID := kernel.NewUUID()
	tk := claimedTask(t, orderID, 2, "pick", "agent-1")

	orders := new(MockOrderStore)
	tasks := new(MockTaskQueue)
	events := new(MockEventPublisher)
	mock.InOrder(
		tasks.On("Get", mock.Anything, tk.ID()).Return(tk, nil).Once(),
		tasks.On("Complete", mock.Anything, tk.ID(), "agent-1").
			Return(task.Completion{Task: completedCopy(t, tk, "agent-1")}, nil).Once(),
		orders.On("Get", mock.Anything, orderID).Return(orderAt(t, orderID, order.Confirmed, 2), nil).Once(),
		orders.On("UpdateStatus", mock.Anything, orderID, uint64(2), order.Picking, "pick completed by agent-1", kernel.RoleFulfillment).
			Return(orderAt(t, orderID, order.Picking, 3), nil).Once(),
		tasks.On("Settle", mock.Anything, orderID, uint64(3), &task.Step{Transition: "pack", Role: kernel.RoleFulfillment}).
			Return(task.Settlement{Withdrawn: true, Queued: kernel.NewUUID()}, nil).Once(),
	)
	events.On("PublishOrderStatusChanged", mock.Anything, mock.Anything).Return(nil).Once()

	h := newCompleteHandler(t, orders, tasks, events)
	cmd, _ := commands.NewCompleteTaskCommand(tk.ID(), "agent-1", kernel.RoleFulfillment)

	got, err := h.Handle(t.Context(), cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Picking, got.Status())
	orders.AssertExpectations(t)
	tasks.AssertExpectations(t)
}

func TestCompleteTaskCommandHandler_Handle_AlreadyCompletedIsIdempotent(t *testing.T) {
	orderID := kernel.NewUUID()
	tk := claimedTask(t, orderID, 2, "pick", "agent-1")
	current := orderAt(t, orderID, order.Picking, 3)

	orders := new(MockOrderStore)
	tasks := new(MockTaskQueue)
	tasks.On("Get", mock.Anything, tk.ID()).Return(completedCopy(t, tk, "agent-1"), nil).Once()
	tasks.On("Complete", mock.Anything, tk.ID(), "agent-1").
		Return(task.Completion{Task: completedCopy(t, tk, "agent-1"), AlreadyCompleted: true}, nil).Once()
	orders.On("Get", mock.Anything, orderID).Return(current, nil).Once()
	tasks.On("Settle", mock.Anything, orderID, uint64(3), &task.Step{Transition: "pack", Role: kernel.RoleFulfillment}).
		Return(task.Settlement{Skipped: true}, nil).Once()

	h := newCompleteHandler(t, orders, tasks, new(MockEventPublisher))
	cmd, _ := commands.NewCompleteTaskCommand(tk.ID(), "agent-1", kernel.RoleFulfillment)

	got, err := h.Handle(t.Context(), cmd)

	require.NoError(t, err)
	assert.Same(t, current, got)
	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	tasks.AssertExpectations(t)
}

func TestCompleteTaskCommandHandler_Handle_RetryAppliesTransitionThatFailedFirst(t *testing.T) {
	orderID := kernel.NewUUID()
	tk := claimedTask(t, orderID, 2, "pick", "agent-1")
	done := completedCopy(t, tk, "agent-1")
	down := errors.New("connection reset")

	orders := new(MockOrderStore)
	tasks := new(MockTaskQueue)
	events := new(MockEventPublisher)
	tasks.On("Get", mock.Anything, tk.ID()).Return(tk, nil).Once()
	tasks.On("Get", mock.Anything, tk.ID()).Return(done, nil).Once()
	tasks.On("Complete", mock.Anything, tk.ID(), "agent-1").Return(task.Completion{Task: done}, nil).Once()
	tasks.On("Complete", mock.Anything, tk.ID(), "agent-1").
		Return(task.Completion{Task: done, AlreadyCompleted: true}, nil).Once()
	orders.On("Get", mock.Anything, orderID).Return(orderAt(t, orderID, order.Confirmed, 2), nil).Times(3)
	orders.On("UpdateStatus", mock.Anything, orderID, uint64(2), order.Picking, "pick completed by agent-1", kernel.RoleFulfillment).
		Return(nil, down).Once()
	orders.On("UpdateStatus", mock.Anything, orderID, uint64(2), order.Picking, "pick completed by agent-1", kernel.RoleFulfillment).
		Return(orderAt(t, orderID, order.Picking, 3), nil).Once()
	tasks.On("Settle", mock.Anything, orderID, uint64(3), &task.Step{Transition: "pack", Role: kernel.RoleFulfillment}).
		Return(task.Settlement{Queued: kernel.NewUUID()}, nil).Once()
	events.On("PublishOrderStatusChanged", mock.Anything, mock.Anything).Return(nil).Once()

	h := newCompleteHandler(t, orders, tasks, events)
	cmd, _ := commands.NewCompleteTaskCommand(tk.ID(), "agent-1", kernel.RoleFulfillment)

	_, err := h.Handle(t.Context(), cmd)
	require.ErrorIs(t, err, down)

	got, err := h.Handle(t.Context(), cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Picking, got.Status())
	orders.AssertExpectations(t)
	tasks.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestCompleteTaskCommandHandler_Handle_RetryAfterLostSettleRepairsQueue(t *testing.T) {
	orderID := kernel.NewUUID()
	tk := claimedTask(t, orderID, 2, "pick", "agent-1")
	done := completedCopy(t, tk, "agent-1")
	current := orderAt(t, orderID, order.Picking, 3)

	orders := new(MockOrderStore)
	tasks := new(MockTaskQueue)
	tasks.On("Get", mock.Anything, tk.ID()).Return(done, nil).Once()
	tasks.On("Complete", mock.Anything, tk.ID(), "agent-1").
		Return(task.Completion{Task: done, AlreadyCompleted: true}, nil).Once()
	orders.On("Get", mock.Anything, orderID).Return(current, nil).Once()
	// the transition landed but its settle did not; the retry queues "pack"
	tasks.On("Settle", mock.Anything, orderID, uint64(3), &task.Step{Transition: "pack", Role: kernel.RoleFulfillment}).
		Return(task.Settlement{Queued: kernel.NewUUID()}, nil).Once()

	h := newCompleteHandler(t, orders, tasks, new(MockEventPublisher))
	cmd, _ := commands.NewCompleteTaskCommand(tk.ID(), "agent-1", kernel.RoleFulfillment)

	got, err := h.Handle(t.Context(), cmd)

	require.NoError(t, err)
	assert.Same(t, current, got)
	tasks.AssertExpectations(t)
}

func TestCompleteTaskCommandHandler_Handle_WrongRole(t *testing.T) {
	tk := claimedTask(t, kernel.NewUUID(), 2, "pick", "agent-1")
	tasks := new(MockTaskQueue)
	tasks.On("Get", mock.Anything, tk.ID()).Return(tk, nil).Once()

	h := newCompleteHandler(t, new(MockOrderStore), tasks, new(MockEventPublisher))
	cmd, _ := commands.NewCompleteTaskCommand(tk.ID(), "agent-1", kernel.RoleCustomer)

	_, err := h.Handle(t.Context(), cmd)

	require.ErrorIs(t, err, workflow.ErrPermissionDenied)
	tasks.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteTaskCommandHandler_Handle_QueueErrorsSurface(t *testing.T) {
	for _, queueErr := range []error{task.ErrNotClaimedByCaller, task.ErrTaskNotClaimed, task.ErrLeaseExpired} {
		tk := claimedTask(t, kernel.NewUUID(), 2, "pick", "agent-1")
		tasks := new(MockTaskQueue)
		tasks.On("Get", mock.Anything, tk.ID()).Return(tk, nil).Once()
		tasks.On("Complete", mock.Anything, tk.ID(), "agent-2").Return(task.Completion{}, queueErr).Once()

		h := newCompleteHandler(t, new(MockOrderStore), tasks, new(MockEventPublisher))
		cmd, _ := commands.NewCompleteTaskCommand(tk.ID(), "agent-2", kernel.RoleFulfillment)

		_, err := h.Handle(t.Context(), cmd)

		require.ErrorIs(t, err, queueErr)
	}
}

func TestCompleteTaskCommandHandler_Handle_OrderCancelledMeanwhile(t *testing.T) {
	orderID := kernel.NewUUID()
	tk := claimedTask(t, orderID, 3, "pack", "agent-1")

	orders := new(MockOrderStore)
	tasks := new(MockTaskQueue)
	tasks.On("Get", mock.Anything, tk.ID()).Return(tk, nil).Once()
	tasks.On("Complete", mock.Anything, tk.ID(), "agent-1").
		Return(task.Completion{Task: completedCopy(t, tk, "agent-1")}, nil).Once()
	orders.On("Get", mock.Anything, orderID).Return(orderAt(t, orderID, order.Cancelled, 4), nil).Once()

	h := newCompleteHandler(t, orders, tasks, new(MockEventPublisher))
	cmd, _ := commands.NewCompleteTaskCommand(tk.ID(), "agent-1", kernel.RoleFulfillment)

	_, err := h.Handle(t.Context(), cmd)

	require.ErrorIs(t, err, workflow.ErrUnknownTransition)
}
