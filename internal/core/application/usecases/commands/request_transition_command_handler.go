package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/core/domain/services"
	"warehouse/internal/core/ports"
	"warehouse/internal/pkg/errs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "warehouse/commands"

// planFunc decides the transition to apply to a freshly read order.
type planFunc func(o *order.Order) (services.TransitionPlan, error)

// RequestTransitionCommandHandler is the single entry point for order status
// changes. It reads the order, plans the transition against its current
// status and writes it with the read version as the expected version. A
// version conflict means another writer got there first: the handler
// re-reads and re-plans, up to maxAttempts times.
//
// After an accepted change it settles the order's task against the new
// version and publishes an OrderStatusChanged event. Settling retires the
// task left from the previous status and queues the follow-up task if the
// new status has one; settles of concurrent changes are ordered by version,
// so the task always matches the newest status.
//
// Example:
//
//	cmd, _ := NewRequestTransitionCommand(orderID, "cancel", kernel.RoleCustomer, "changed my mind")
//	o, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, workflow.ErrUnknownTransition):
//	    // 400
//	case errors.Is(err, workflow.ErrPermissionDenied):
//	    // 403
//	case errors.Is(err, order.ErrVersionConflict):
//	    // 409, retries exhausted
//	}
type RequestTransitionCommandHandler struct {
	orders      ports.OrderStore
	tasks       ports.TaskQueue
	policy      services.TransitionPolicy
	events      ports.EventPublisher
	metrics     ports.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
	maxAttempts int
}

// TransitionOption configures a RequestTransitionCommandHandler.
type TransitionOption func(*RequestTransitionCommandHandler)

// WithMaxAttempts bounds the read-plan-write attempts per request. Values
// below one are ignored.
func WithMaxAttempts(n int) TransitionOption {
	return func(h *RequestTransitionCommandHandler) {
		if n >= 1 {
			h.maxAttempts = n
		}
	}
}

// WithTracer replaces the global otel tracer.
func WithTracer(tracer trace.Tracer) TransitionOption {
	return func(h *RequestTransitionCommandHandler) {
		h.tracer = tracer
	}
}

// NewRequestTransitionCommandHandler creates the transition service.
// Retries default to DefaultMaxAttempts.
func NewRequestTransitionCommandHandler(
	orders ports.OrderStore,
	tasks ports.TaskQueue,
	policy services.TransitionPolicy,
	events ports.EventPublisher,
	metrics ports.Metrics,
	logger *slog.Logger,
	opts ...TransitionOption,
) *RequestTransitionCommandHandler {
	h := &RequestTransitionCommandHandler{
		orders:      orders,
		tasks:       tasks,
		policy:      policy,
		events:      events,
		metrics:     metrics,
		logger:      logger.With("component", "TransitionService"),
		tracer:      otel.Tracer(tracerName),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle applies the requested transition and returns the updated order.
func (h *RequestTransitionCommandHandler) Handle(ctx context.Context, cmd RequestTransitionCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.transition(ctx, cmd.OrderID(), cmd.Role(), cmd.Notes(), string(cmd.Transition()),
		func(o *order.Order) (services.TransitionPlan, error) {
			return h.policy.Plan(o, cmd.Transition(), cmd.Role())
		})
}

func (h *RequestTransitionCommandHandler) transition(
	ctx context.Context,
	orderID kernel.UUID,
	role kernel.Role,
	notes string,
	requested string,
	plan planFunc,
) (*order.Order, error) {
	ctx, span := h.tracer.Start(ctx, "TransitionService.Transition", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
		attribute.String("transition.requested", requested),
		attribute.String("actor.role", role.String()),
	))
	defer span.End()

	updated, applied, err := h.applyWithRetry(ctx, orderID, role, notes, plan)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.metrics.TransitionRejected(rejectionReason(err))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("order.status", updated.Status().String()),
		attribute.Int64("order.version", int64(updated.Version())), //nolint:gosec // versions stay far below MaxInt64
	)
	h.metrics.TransitionApplied(applied.Transition.Name, role)

	if err = h.settle(ctx, updated); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	h.publish(ctx, updated, applied, role)
	return updated, nil
}

func (h *RequestTransitionCommandHandler) applyWithRetry(
	ctx context.Context,
	orderID kernel.UUID,
	role kernel.Role,
	notes string,
	plan planFunc,
) (*order.Order, services.TransitionPlan, error) {
	var lastErr error
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		current, err := h.orders.Get(ctx, orderID)
		if err != nil {
			return nil, services.TransitionPlan{}, err
		}

		p, err := plan(current)
		if err != nil {
			return nil, services.TransitionPlan{}, err
		}

		updated, err := h.orders.UpdateStatus(ctx, orderID, current.Version(), p.Transition.To, notes, role)
		if err == nil {
			return updated, p, nil
		}
		if !errors.Is(err, order.ErrVersionConflict) {
			return nil, services.TransitionPlan{}, err
		}

		h.metrics.VersionConflict()
		h.logger.DebugContext(ctx, "version conflict, retrying",
			"order_id", orderID.String(), "attempt", attempt, "expected_version", current.Version())
		lastErr = err
	}

	return nil, services.TransitionPlan{}, fmt.Errorf("order %s: gave up after %d attempts: %w",
		orderID, h.maxAttempts, lastErr)
}

// settle keeps the order's task in line with o: the task left from an
// older version is retired and the step o.Status() waits for, if any, is
// queued. The queue skips the settle when a newer version got there first.
func (h *RequestTransitionCommandHandler) settle(ctx context.Context, o *order.Order) error {
	next := h.policy.NextStep(o.Status())
	s, err := h.tasks.Settle(ctx, o.ID(), o.Version(), next)
	if err != nil {
		h.logger.ErrorContext(ctx, "order task not settled",
			"order_id", o.ID().String(), "version", o.Version(), "error", err)
		return fmt.Errorf("settle task of order %s at version %d: %w", o.ID(), o.Version(), err)
	}
	if s.Skipped {
		h.logger.DebugContext(ctx, "task already settled by a newer change",
			"order_id", o.ID().String(), "version", o.Version())
		return nil
	}
	if s.Withdrawn {
		h.logger.InfoContext(ctx, "withdrew stale task", "order_id", o.ID().String(), "status", o.Status().String())
	}
	if s.HasQueued() {
		h.metrics.TaskEnqueued(next.Role)
		h.logger.DebugContext(ctx, "task queued",
			"order_id", o.ID().String(), "task_id", s.Queued.String(), "transition", next.Transition.String())
	}
	return nil
}

func (h *RequestTransitionCommandHandler) publish(ctx context.Context, o *order.Order, plan services.TransitionPlan, role kernel.Role) {
	history := o.History()
	event := ports.OrderStatusChanged{
		OrderID:    o.ID(),
		Transition: plan.Transition.Name,
		From:       plan.Transition.From,
		To:         o.Status(),
		ActorRole:  role,
		Version:    o.Version(),
		At:         history[len(history)-1].At,
	}
	if err := h.events.PublishOrderStatusChanged(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "status change event not published", "order_id", o.ID().String(), "error", err)
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, workflow.ErrUnknownTransition):
		return "unknown_transition"
	case errors.Is(err, workflow.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, order.ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, order.ErrInvalidCurrentState):
		return "invalid_current_state"
	case errors.Is(err, errs.ErrObjectNotFound):
		return "not_found"
	default:
		return "error"
	}
}
