package commands_test

import (
	"errors"
	"testing"

	"warehouse/internal/core/application/usecases/commands"
	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewUpdateOrderCommand(t *testing.T) {
	t.Run("should require at least one field", func(t *testing.T) {
		_, err := commands.NewUpdateOrderCommand(kernel.NewUUID(), order.DetailsUpdate{})

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should normalize name and items", func(t *testing.T) {
		name := " Grace "

		cmd, err := commands.NewUpdateOrderCommand(kernel.NewUUID(),
			order.DetailsUpdate{CustomerName: &name, Items: []string{" bolt", ""}})

		require.NoError(t, err)
		require.NoError(t, cmd.Validate())
		assert.Equal(t, "Grace", *cmd.Update().CustomerName)
		assert.Equal(t, []string{"bolt"}, cmd.Update().Items)
	})
}

func TestUpdateOrderCommandHandler_Handle(t *testing.T) {
	t.Run("should store the edit and leave the queue alone", func(t *testing.T) {
		id := kernel.NewUUID()
		notes := "side door"
		cmd, _ := commands.NewUpdateOrderCommand(id, order.DetailsUpdate{Notes: &notes})
		updated := orderAt(t, id, order.Picking, 3)

		orders := new(MockOrderStore)
		orders.On("UpdateDetails", mock.Anything, id, cmd.Update()).Return(updated, nil).Once()

		h := commands.NewUpdateOrderCommandHandler(orders, discardLogger())
		got, err := h.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Same(t, updated, got)
		orders.AssertExpectations(t)
	})

	t.Run("should surface unknown order", func(t *testing.T) {
		id := kernel.NewUUID()
		notes := "x"
		cmd, _ := commands.NewUpdateOrderCommand(id, order.DetailsUpdate{Notes: &notes})

		orders := new(MockOrderStore)
		orders.On("UpdateDetails", mock.Anything, id, mock.Anything).
			Return(nil, errs.NewObjectNotFoundError("order", id)).Once()

		h := commands.NewUpdateOrderCommandHandler(orders, discardLogger())
		_, err := h.Handle(t.Context(), cmd)

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("should reject unconstructed command", func(t *testing.T) {
		h := commands.NewUpdateOrderCommandHandler(new(MockOrderStore), discardLogger())

		_, err := h.Handle(t.Context(), commands.UpdateOrderCommand{})

		require.ErrorIs(t, err, commands.ErrUpdateOrderCommandIsNotConstructed)
	})
}

func TestDeleteOrderCommandHandler_Handle(t *testing.T) {
	t.Run("should delete order then withdraw its task", func(t *testing.T) {
		id := kernel.NewUUID()
		cmd, err := commands.NewDeleteOrderCommand(id)
		require.NoError(t, err)

		orders := new(MockOrderStore)
		tasks := new(MockTaskQueue)
		mock.InOrder(
			orders.On("Delete", mock.Anything, id).Return(nil).Once(),
			tasks.On("Withdraw", mock.Anything, id).Return(1, nil).Once(),
		)

		h := commands.NewDeleteOrderCommandHandler(orders, tasks, discardLogger())

		require.NoError(t, h.Handle(t.Context(), cmd))
		orders.AssertExpectations(t)
		tasks.AssertExpectations(t)
	})

	t.Run("should not touch the queue for unknown order", func(t *testing.T) {
		id := kernel.NewUUID()
		cmd, _ := commands.NewDeleteOrderCommand(id)

		orders := new(MockOrderStore)
		tasks := new(MockTaskQueue)
		orders.On("Delete", mock.Anything, id).Return(errs.NewObjectNotFoundError("order", id)).Once()

		h := commands.NewDeleteOrderCommandHandler(orders, tasks, discardLogger())
		err := h.Handle(t.Context(), cmd)

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
		tasks.AssertNotCalled(t, "Withdraw", mock.Anything, mock.Anything)
	})

	t.Run("should surface withdraw failure", func(t *testing.T) {
		id := kernel.NewUUID()
		cmd, _ := commands.NewDeleteOrderCommand(id)
		down := errors.New("queue unavailable")

		orders := new(MockOrderStore)
		tasks := new(MockTaskQueue)
		orders.On("Delete", mock.Anything, id).Return(nil).Once()
		tasks.On("Withdraw", mock.Anything, id).Return(0, down).Once()

		h := commands.NewDeleteOrderCommandHandler(orders, tasks, discardLogger())

		require.ErrorIs(t, h.Handle(t.Context(), cmd), down)
	})

	t.Run("should reject invalid id", func(t *testing.T) {
		_, err := commands.NewDeleteOrderCommand(kernel.UUID{})

		require.Error(t, err)
	})
}
