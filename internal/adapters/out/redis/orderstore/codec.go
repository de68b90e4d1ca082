// Package orderstore keeps order aggregates in Redis.
//
// Layout, with the default prefix:
//
//	warehouse:order:{id}          hash: customer_name, items, notes, status,
//	                              version, created_at, ts:<milestone>
//	warehouse:order:{id}:history  list of JSON status changes, oldest first
//	warehouse:orders              set of order ids
//
// Status changes run as one Lua script that compares the version, writes
// the status, appends history and stamps the milestone, so concurrent
// writers are serialized by Redis.
package orderstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/order"
)

const (
	fieldCustomerName = "customer_name"
	fieldItems        = "items"
	fieldNotes        = "notes"
	fieldStatus       = "status"
	fieldVersion      = "version"
	fieldCreatedAt    = "created_at"
	milestonePrefix   = "ts:"
)

// historyEntry is the JSON form of one status change.
type historyEntry struct {
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
	Notes     string    `json:"notes,omitempty"`
	ActorRole string    `json:"actor_role"`
}

func encodeHistory(change order.StatusChange) (string, error) {
	data, err := json.Marshal(historyEntry{
		Status:    change.Status.String(),
		At:        change.At.UTC(),
		Notes:     change.Notes,
		ActorRole: change.ActorRole.String(),
	})
	if err != nil {
		return "", fmt.Errorf("encode history entry: %w", err)
	}
	return string(data), nil
}

func decodeHistory(raw []string) ([]order.StatusChange, error) {
	history := make([]order.StatusChange, 0, len(raw))
	for _, r := range raw {
		var e historyEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		status, err := order.ParseStatus(e.Status)
		if err != nil {
			return nil, err
		}
		role, err := kernel.ParseRole(e.ActorRole)
		if err != nil {
			return nil, err
		}
		history = append(history, order.StatusChange{Status: status, At: e.At, Notes: e.Notes, ActorRole: role})
	}
	return history, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// orderFields flattens a new order into HSET arguments.
func orderFields(o *order.Order) ([]any, error) {
	items, err := json.Marshal(o.Items())
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	fields := []any{
		fieldCustomerName, o.CustomerName(),
		fieldItems, string(items),
		fieldNotes, o.Notes(),
		fieldStatus, o.Status().String(),
		fieldVersion, strconv.FormatUint(o.Version(), 10),
		fieldCreatedAt, formatTime(o.CreatedAt()),
	}
	for m, at := range o.Milestones() {
		fields = append(fields, milestonePrefix+string(m), formatTime(at))
	}
	return fields, nil
}

// detailsFields flattens a validated details update into HSET arguments.
func detailsFields(u order.DetailsUpdate) ([]any, error) {
	u = u.Normalized()
	var fields []any
	if u.CustomerName != nil {
		fields = append(fields, fieldCustomerName, *u.CustomerName)
	}
	if u.Items != nil {
		items, err := json.Marshal(u.Items)
		if err != nil {
			return nil, fmt.Errorf("encode items: %w", err)
		}
		fields = append(fields, fieldItems, string(items))
	}
	if u.Notes != nil {
		fields = append(fields, fieldNotes, *u.Notes)
	}
	return fields, nil
}

// decodeOrder rebuilds an order from its hash fields and raw history.
func decodeOrder(id kernel.UUID, fields map[string]string, rawHistory []string) (*order.Order, error) {
	status, err := order.ParseStatus(fields[fieldStatus])
	if err != nil {
		return nil, fmt.Errorf("order %s: %w: %w", id, order.ErrInvalidCurrentState, err)
	}
	version, err := strconv.ParseUint(fields[fieldVersion], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("order %s: parse version: %w", id, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("order %s: parse created_at: %w", id, err)
	}
	var items []string
	if err = json.Unmarshal([]byte(fields[fieldItems]), &items); err != nil {
		return nil, fmt.Errorf("order %s: decode items: %w", id, err)
	}

	milestones := order.Milestones{}
	for k, v := range fields {
		name, ok := strings.CutPrefix(k, milestonePrefix)
		if !ok {
			continue
		}
		at, parseErr := time.Parse(time.RFC3339Nano, v)
		if parseErr != nil {
			return nil, fmt.Errorf("order %s: parse milestone %s: %w", id, name, parseErr)
		}
		milestones[order.Milestone(name)] = at
	}

	history, err := decodeHistory(rawHistory)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}

	return order.RestoreOrder(id, fields[fieldCustomerName], items, fields[fieldNotes],
		status, history, milestones, version, createdAt)
}
