package commands_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderStore struct{ mock.Mock }

func (m *MockOrderStore) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderStore) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderStore) List(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderStore) UpdateStatus(
	ctx context.Context,
	id kernel.UUID,
	expectedVersion uint64,
	newStatus order.Status,
	note string,
	actor kernel.Role,
) (*order.Order, error) {
	args := m.Called(ctx, id, expectedVersion, newStatus, note, actor)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderStore) UpdateDetails(ctx context.Context, id kernel.UUID, u order.DetailsUpdate) (*order.Order, error) {
	args := m.Called(ctx, id, u)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderStore) Delete(ctx context.Context, id kernel.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTaskQueue struct{ mock.Mock }

func (m *MockTaskQueue) Settle(
	ctx context.Context,
	orderID kernel.UUID,
	version uint64,
	next *task.Step,
) (task.Settlement, error) {
	args := m.Called(ctx, orderID, version, next)
	s, _ := args.Get(0).(task.Settlement)
	return s, args.Error(1)
}

func (m *MockTaskQueue) Claim(ctx context.Context, role kernel.Role, agentID string, lease time.Duration) (*task.Task, error) {
	args := m.Called(ctx, role, agentID, lease)
	t, _ := args.Get(0).(*task.Task)
	return t, args.Error(1)
}

func (m *MockTaskQueue) Complete(ctx context.Context, taskID kernel.UUID, agentID string) (task.Completion, error) {
	args := m.Called(ctx, taskID, agentID)
	c, _ := args.Get(0).(task.Completion)
	return c, args.Error(1)
}

func (m *MockTaskQueue) Release(ctx context.Context, taskID kernel.UUID, agentID string) (*task.Task, error) {
	args := m.Called(ctx, taskID, agentID)
	t, _ := args.Get(0).(*task.Task)
	return t, args.Error(1)
}

func (m *MockTaskQueue) ReclaimExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskQueue) Withdraw(ctx context.Context, orderID kernel.UUID) (int, error) {
	args := m.Called(ctx, orderID)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskQueue) Status(ctx context.Context) (task.QueueStatus, error) {
	args := m.Called(ctx)
	qs, _ := args.Get(0).(task.QueueStatus)
	return qs, args.Error(1)
}

func (m *MockTaskQueue) Get(ctx context.Context, taskID kernel.UUID) (*task.Task, error) {
	args := m.Called(ctx, taskID)
	t, _ := args.Get(0).(*task.Task)
	return t, args.Error(1)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) PublishOrderStatusChanged(ctx context.Context, event ports.OrderStatusChanged) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type nopMetrics struct{}

func (nopMetrics) TransitionApplied(workflow.TransitionName, kernel.Role) {}
func (nopMetrics) TransitionRejected(string)                              {}
func (nopMetrics) VersionConflict()                                       {}
func (nopMetrics) TaskEnqueued(kernel.Role)                               {}
func (nopMetrics) TaskClaimed(kernel.Role)                                {}
func (nopMetrics) TaskCompleted(kernel.Role)                              {}
func (nopMetrics) TasksReclaimed(int)                                     {}
func (nopMetrics) QueueDepth(task.QueueStatus)                            {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
