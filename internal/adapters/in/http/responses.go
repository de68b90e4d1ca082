package http

import (
	"sort"
	"time"

	"warehouse/internal/core/application/usecases/queries"
	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/generated/servers"
)

func toOrder(o *order.Order) servers.Order {
	return servers.Order{
		Id:                    o.ID().Bytes(),
		CustomerName:          o.CustomerName(),
		Items:                 o.Items(),
		Notes:                 optional(o.Notes()),
		Status:                o.Status().String(),
		Version:               int64(o.Version()), //nolint:gosec // versions stay far below MaxInt64
		CreatedAt:             o.CreatedAt(),
		StatusHistory:         toStatusChanges(o.History()),
		FulfillmentTimestamps: toMilestones(o.Milestones()),
	}
}

func toTimeline(t queries.GetTimelineQueryResponse) servers.Timeline {
	return servers.Timeline{
		OrderId:               t.OrderID.Bytes(),
		CurrentStatus:         t.CurrentStatus.String(),
		Version:               int64(t.Version), //nolint:gosec // versions stay far below MaxInt64
		StatusChanges:         toStatusChanges(t.StatusChanges),
		FulfillmentTimestamps: toMilestones(t.FulfillmentTimestamps),
	}
}

func toStatusChanges(history []order.StatusChange) []servers.StatusChange {
	out := make([]servers.StatusChange, 0, len(history))
	for _, change := range history {
		out = append(out, servers.StatusChange{
			Status:    change.Status.String(),
			Timestamp: change.At,
			Notes:     optional(change.Notes),
			ActorRole: change.ActorRole.String(),
		})
	}
	return out
}

func toMilestones(m map[order.Milestone]time.Time) map[string]time.Time {
	out := make(map[string]time.Time, len(m))
	for milestone, at := range m {
		out[string(milestone)] = at
	}
	return out
}

func toTask(t *task.Task) servers.Task {
	resp := servers.Task{
		Id:           t.ID().Bytes(),
		OrderId:      t.OrderID().Bytes(),
		Transition:   string(t.Transition()),
		RequiredRole: t.RequiredRole().String(),
		State:        t.State().String(),
		CreatedAt:    t.CreatedAt(),
		ClaimedBy:    optional(t.ClaimedBy()),
		CompletedBy:  optional(t.CompletedBy()),
	}
	if !t.ClaimExpiry().IsZero() {
		expiry := t.ClaimExpiry()
		resp.ClaimExpiry = &expiry
	}
	if !t.CompletedAt().IsZero() {
		completed := t.CompletedAt()
		resp.CompletedAt = &completed
	}
	return resp
}

func toQueueStatus(status task.QueueStatus) servers.QueueStatus {
	queues := make(map[string]servers.QueueCounts, len(status))
	for role, counts := range status {
		queues[role.String()] = servers.QueueCounts{Queued: counts.Queued, Claimed: counts.Claimed}
	}
	total := status.Total()
	return servers.QueueStatus{
		Queues: queues,
		Total:  servers.QueueCounts{Queued: total.Queued, Claimed: total.Claimed},
	}
}

func toStateMachineInfo(info queries.GetStateMachineInfoQueryResponse) servers.StateMachineInfo {
	resp := servers.StateMachineInfo{
		Initial:          info.Initial.String(),
		States:           statusNames(info.States),
		Terminal:         statusNames(info.Terminal),
		Transitions:      make([]servers.TransitionInfo, 0, len(info.Transitions)),
		LegalTransitions: make(map[string][]string, len(info.Legal)),
	}
	for _, tr := range info.Transitions {
		resp.Transitions = append(resp.Transitions, servers.TransitionInfo{
			Name:         string(tr.Name),
			From:         statusNames(tr.From),
			To:           tr.To.String(),
			RequiredRole: tr.RequiredRole.String(),
		})
	}
	for status, names := range info.Legal {
		legal := make([]string, 0, len(names))
		for _, name := range names {
			legal = append(legal, string(name))
		}
		sort.Strings(legal)
		resp.LegalTransitions[status.String()] = legal
	}
	return resp
}

func statusNames(statuses []order.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.String())
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
