package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"warehouse/internal/core/application/usecases/queries"
	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/core/ports"
	"warehouse/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderStore struct {
	mock.Mock
	ports.OrderStore
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

type MockTaskQueue struct {
	mock.Mock
	ports.TaskQueue
}

func (m *MockTaskQueue) Status(ctx context.Context) (task.QueueStatus, error) {
	args := m.Called(ctx)
	qs, _ := args.Get(0).(task.QueueStatus)
	return qs, args.Error(1)
}

var placedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func placedOrder(t *testing.T, at time.Time) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), "Ada", []string{"widget"}, "", at)
	require.NoError(t, err)
	return o
}

func TestGetOrderQueryHandler_Handle(t *testing.T) {
	o := placedOrder(t, placedAt)
	store := new(MockOrderStore)
	store.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()

	q, err := queries.NewGetOrderQuery(o.ID())
	require.NoError(t, err)

	got, err := queries.NewGetOrderQueryHandler(store).Handle(t.Context(), q)

	require.NoError(t, err)
	assert.Same(t, o, got)
}

func TestGetOrderQuery_RequiresID(t *testing.T) {
	_, err := queries.NewGetOrderQuery(kernel.UUID{})
	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)

	_, err = queries.NewGetOrderQueryHandler(new(MockOrderStore)).Handle(t.Context(), queries.GetOrderQuery{})
	require.ErrorIs(t, err, queries.ErrGetOrderQueryIsNotConstructed)
}

func TestListOrdersQueryHandler_Handle_SortsByCreation(t *testing.T) {
	older := placedOrder(t, placedAt)
	newer := placedOrder(t, placedAt.Add(time.Hour))
	store := new(MockOrderStore)
	store.On("List", mock.Anything).Return([]*order.Order{newer, older}, nil).Once()

	got, err := queries.NewListOrdersQueryHandler(store).Handle(t.Context(), queries.NewListOrdersQuery())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Same(t, older, got[0])
	assert.Same(t, newer, got[1])
}

func TestGetTimelineQueryHandler_Handle(t *testing.T) {
	o := placedOrder(t, placedAt)
	require.NoError(t, o.ChangeStatus(1, order.Confirmed, "", kernel.RoleFulfillment, placedAt.Add(time.Minute)))
	store := new(MockOrderStore)
	store.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()

	q, _ := queries.NewGetTimelineQuery(o.ID())
	got, err := queries.NewGetTimelineQueryHandler(store).Handle(t.Context(), q)

	require.NoError(t, err)
	assert.Equal(t, order.Confirmed, got.CurrentStatus)
	assert.Equal(t, uint64(2), got.Version)
	require.Len(t, got.StatusChanges, 2)
	assert.Equal(t, got.CurrentStatus, got.StatusChanges[len(got.StatusChanges)-1].Status)
	assert.Equal(t, placedAt.Add(time.Minute), got.FulfillmentTimestamps[order.MilestoneConfirmed])

	got.StatusChanges[0].Notes = "tampered"
	got.FulfillmentTimestamps[order.MilestoneShipped] = placedAt
	assert.Equal(t, "Order placed", o.History()[0].Notes)
	_, shipped := o.Milestones()[order.MilestoneShipped]
	assert.False(t, shipped)
}

func TestGetTimelineQueryHandler_Handle_NotFound(t *testing.T) {
	id := kernel.NewUUID()
	store := new(MockOrderStore)
	store.On("Get", mock.Anything, id).Return(nil, errs.NewObjectNotFoundError("order", id)).Once()

	q, _ := queries.NewGetTimelineQuery(id)
	_, err := queries.NewGetTimelineQueryHandler(store).Handle(t.Context(), q)

	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestGetQueueStatusQueryHandler_Handle(t *testing.T) {
	status := task.NewQueueStatus()
	status[kernel.RoleFulfillment] = task.Counts{Queued: 2, Claimed: 1}
	tasks := new(MockTaskQueue)
	tasks.On("Status", mock.Anything).Return(status, nil).Once()

	got, err := queries.NewGetQueueStatusQueryHandler(tasks).Handle(t.Context(), queries.NewGetQueueStatusQuery())

	require.NoError(t, err)
	assert.Equal(t, task.Counts{Queued: 2, Claimed: 1}, got[kernel.RoleFulfillment])

	down := errors.New("queue unavailable")
	tasks.On("Status", mock.Anything).Return(nil, down).Once()
	_, err = queries.NewGetQueueStatusQueryHandler(tasks).Handle(t.Context(), queries.NewGetQueueStatusQuery())
	require.ErrorIs(t, err, down)
}

func TestGetStateMachineInfoQueryHandler_Handle(t *testing.T) {
	def, err := workflow.Default()
	require.NoError(t, err)

	got, err := queries.NewGetStateMachineInfoQueryHandler(def).Handle(t.Context(), queries.NewGetStateMachineInfoQuery())

	require.NoError(t, err)
	assert.Equal(t, order.Pending, got.Initial)
	assert.Len(t, got.States, 8)
	assert.ElementsMatch(t, []order.Status{order.Delivered, order.Cancelled, order.Returned}, got.Terminal)
	require.Len(t, got.Transitions, 7)
	assert.Equal(t, workflow.TransitionName("cancel"), got.Transitions[0].Name)
	assert.Equal(t, []order.Status{order.Pending, order.Confirmed, order.Picking, order.Packed}, got.Transitions[0].From)
	assert.Equal(t, kernel.RoleCustomer, got.Transitions[0].RequiredRole)
	assert.Equal(t, []workflow.TransitionName{"cancel", "confirm"}, got.Legal[order.Pending])
	assert.Empty(t, got.Legal[order.Returned])
}
