// Package servers holds the HTTP API contract: request and response types,
// the ServerInterface the echo adapter implements, the router glue that binds
// parameters, and the embedded OpenAPI document. It follows the layout
// oapi-codegen produces for the echo server target from openapi.yml.
package servers

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// AgentRoleHeader is the header carrying the asserted caller role.
const AgentRoleHeader = "X-AGENT-ROLE"

// Error defines model for Error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health defines model for Health.
type Health struct {
	Ok bool `json:"ok"`
}

// Message defines model for Message.
type Message struct {
	Message string `json:"message"`
}

// NewOrder defines model for NewOrder.
type NewOrder struct {
	CustomerName string   `json:"customer_name"`
	Items        []string `json:"items"`
	Notes        *string  `json:"notes,omitempty"`
}

// OrderPatch defines model for OrderPatch.
type OrderPatch struct {
	CustomerName *string   `json:"customer_name,omitempty"`
	Items        *[]string `json:"items,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
}

// Deleted defines model for Deleted.
type Deleted struct {
	Deleted openapi_types.UUID `json:"deleted"`
}

// StatusChange defines model for StatusChange.
type StatusChange struct {
	ActorRole string    `json:"actor_role"`
	Notes     *string   `json:"notes,omitempty"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Order defines model for Order.
type Order struct {
	CreatedAt             time.Time            `json:"created_at"`
	CustomerName          string               `json:"customer_name"`
	FulfillmentTimestamps map[string]time.Time `json:"fulfillment_timestamps"`
	Id                    openapi_types.UUID   `json:"id"`
	Items                 []string             `json:"items"`
	Notes                 *string              `json:"notes,omitempty"`
	Status                string               `json:"status"`
	StatusHistory         []StatusChange       `json:"status_history"`
	Version               int64                `json:"version"`
}

// TransitionRequest defines model for TransitionRequest.
type TransitionRequest struct {
	AgentId    *string `json:"agent_id,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	Transition string  `json:"transition"`
}

// Timeline defines model for Timeline.
type Timeline struct {
	CurrentStatus         string               `json:"current_status"`
	FulfillmentTimestamps map[string]time.Time `json:"fulfillment_timestamps"`
	OrderId               openapi_types.UUID   `json:"order_id"`
	StatusChanges         []StatusChange       `json:"status_changes"`
	Version               int64                `json:"version"`
}

// Task defines model for Task.
type Task struct {
	ClaimExpiry  *time.Time         `json:"claim_expiry,omitempty"`
	ClaimedBy    *string            `json:"claimed_by,omitempty"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
	CompletedBy  *string            `json:"completed_by,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	Id           openapi_types.UUID `json:"id"`
	OrderId      openapi_types.UUID `json:"order_id"`
	RequiredRole string             `json:"required_role"`
	State        string             `json:"state"`
	Transition   string             `json:"transition"`
}

// CompleteTaskRequest defines model for CompleteTaskRequest.
type CompleteTaskRequest struct {
	AgentId string             `json:"agent_id"`
	TaskId  openapi_types.UUID `json:"task_id"`
}

// ReleaseTaskRequest defines model for ReleaseTaskRequest.
type ReleaseTaskRequest struct {
	TaskId openapi_types.UUID `json:"task_id"`
}

// QueueCounts defines model for QueueCounts.
type QueueCounts struct {
	Claimed int `json:"claimed"`
	Queued  int `json:"queued"`
}

// QueueStatus defines model for QueueStatus.
type QueueStatus struct {
	Queues map[string]QueueCounts `json:"queues"`
	Total  QueueCounts            `json:"total"`
}

// TransitionInfo defines model for TransitionInfo.
type TransitionInfo struct {
	From         []string `json:"from"`
	Name         string   `json:"name"`
	RequiredRole string   `json:"required_role"`
	To           string   `json:"to"`
}

// StateMachineInfo defines model for StateMachineInfo.
type StateMachineInfo struct {
	Initial          string              `json:"initial"`
	LegalTransitions map[string][]string `json:"legal_transitions"`
	States           []string            `json:"states"`
	Terminal         []string            `json:"terminal"`
	Transitions      []TransitionInfo    `json:"transitions"`
}

// RequestTransitionParams defines parameters for RequestTransition.
type RequestTransitionParams struct {
	XAGENTROLE *string `json:"X-AGENT-ROLE,omitempty"`
}

// AdvanceOrderParams defines parameters for AdvanceOrder.
type AdvanceOrderParams struct {
	XAGENTROLE *string `json:"X-AGENT-ROLE,omitempty"`
}

// ClaimTaskParams defines parameters for ClaimTask.
type ClaimTaskParams struct {
	AgentId      string  `form:"agent_id" json:"agent_id"`
	LeaseSeconds *int    `form:"lease_seconds,omitempty" json:"lease_seconds,omitempty"`
	XAGENTROLE   *string `json:"X-AGENT-ROLE,omitempty"`
}

// CompleteTaskParams defines parameters for CompleteTask.
type CompleteTaskParams struct {
	XAGENTROLE *string `json:"X-AGENT-ROLE,omitempty"`
}

// ReleaseTaskParams defines parameters for ReleaseTask.
type ReleaseTaskParams struct {
	AgentId    string  `form:"agent_id" json:"agent_id"`
	XAGENTROLE *string `json:"X-AGENT-ROLE,omitempty"`
}

// CreateOrderJSONRequestBody defines body for CreateOrder for application/json ContentType.
type CreateOrderJSONRequestBody = NewOrder

// UpdateOrderJSONRequestBody defines body for UpdateOrder for application/json ContentType.
type UpdateOrderJSONRequestBody = OrderPatch

// RequestTransitionJSONRequestBody defines body for RequestTransition for application/json ContentType.
type RequestTransitionJSONRequestBody = TransitionRequest

// CompleteTaskJSONRequestBody defines body for CompleteTask for application/json ContentType.
type CompleteTaskJSONRequestBody = CompleteTaskRequest

// ReleaseTaskJSONRequestBody defines body for ReleaseTask for application/json ContentType.
type ReleaseTaskJSONRequestBody = ReleaseTaskRequest
