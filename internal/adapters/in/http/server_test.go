package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "warehouse/internal/adapters/in/http"
	"warehouse/internal/adapters/out/kafka"
	"warehouse/internal/adapters/out/metrics"
	"warehouse/internal/adapters/out/redis/orderstore"
	"warehouse/internal/adapters/out/redis/taskqueue"
	"warehouse/internal/core/application/usecases/commands"
	"warehouse/internal/core/application/usecases/queries"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/core/domain/services"
	"warehouse/internal/generated/servers"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	customer    = "customer"
	fulfillment = "fulfillment"
)

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) api {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	orders := orderstore.NewStore(client)
	tasks := taskqueue.NewQueue(client)
	def, err := workflow.Default()
	require.NoError(t, err)
	policy, err := services.NewTransitionPolicy(def)
	require.NoError(t, err)
	m := metrics.NewPrometheus()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	transitions := commands.NewRequestTransitionCommandHandler(orders, tasks, policy, kafka.NopPublisher{}, m, logger)
	create := commands.NewCreateOrderCommandHandler(orders, tasks, policy, m, logger)
	server := httpadapter.NewServer(
		httpadapter.CommandHandlers{
			CreateOrder:       &create,
			UpdateOrder:       commands.NewUpdateOrderCommandHandler(orders, logger),
			DeleteOrder:       commands.NewDeleteOrderCommandHandler(orders, tasks, logger),
			RequestTransition: transitions,
			AdvanceOrder:      commands.NewAdvanceOrderCommandHandler(transitions),
			ClaimTask:         commands.NewClaimTaskCommandHandler(tasks, m, logger, commands.DefaultLease),
			CompleteTask:      commands.NewCompleteTaskCommandHandler(tasks, orders, transitions, m, logger),
			ReleaseTask:       commands.NewReleaseTaskCommandHandler(tasks, logger),
		},
		httpadapter.QueryHandlers{
			GetOrder:            queries.NewGetOrderQueryHandler(orders),
			ListOrders:          queries.NewListOrdersQueryHandler(orders),
			GetTimeline:         queries.NewGetTimelineQueryHandler(orders),
			GetQueueStatus:      queries.NewGetQueueStatusQueryHandler(tasks),
			GetStateMachineInfo: queries.NewGetStateMachineInfoQueryHandler(def),
		},
	)

	e, err := httpadapter.NewRouter(server, httpadapter.RouterConfig{Logger: logger, Metrics: m.Handler()})
	require.NoError(t, err)
	return api{t: t, e: e}
}

func (a api) do(method, path, role string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if role != "" {
		req.Header.Set(servers.AgentRoleHeader, role)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a api) createOrder() servers.Order {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/orders", "", map[string]any{
		"customer_name": "Ada",
		"items":         []string{"widget", "gadget"},
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[servers.Order](a.t, rec)
}

func (a api) claim(agent string) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(http.MethodPost, "/queue/claim?agent_id="+agent, fulfillment, nil)
}

func (a api) queueStatus() servers.QueueStatus {
	a.t.Helper()
	rec := a.do(http.MethodGet, "/queue/status", "", nil)
	require.Equal(a.t, http.StatusOK, rec.Code)
	return decode[servers.QueueStatus](a.t, rec)
}

func TestServer_HealthCheck(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[servers.Health](t, rec).Ok)
}

func TestServer_CreateOrder(t *testing.T) {
	t.Run("should place the order in pending and queue confirmation", func(t *testing.T) {
		a := newAPI(t)

		created := a.createOrder()

		assert.Equal(t, "pending", created.Status)
		assert.Equal(t, "Ada", created.CustomerName)
		assert.Equal(t, []string{"widget", "gadget"}, created.Items)
		require.Len(t, created.StatusHistory, 1)
		assert.Equal(t, customer, created.StatusHistory[0].ActorRole)
		assert.Contains(t, created.FulfillmentTimestamps, "placed")

		status := a.queueStatus()
		assert.Equal(t, servers.QueueCounts{Queued: 1}, status.Queues[fulfillment])
		assert.Equal(t, servers.QueueCounts{Queued: 1}, status.Total)
	})

	t.Run("should reject a body without items", func(t *testing.T) {
		a := newAPI(t)

		rec := a.do(http.MethodPost, "/orders", "", map[string]any{"customer_name": "Ada"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, http.StatusBadRequest, decode[servers.Error](t, rec).Code)
	})

	t.Run("should reject a blank customer name", func(t *testing.T) {
		a := newAPI(t)

		rec := a.do(http.MethodPost, "/orders", "", map[string]any{"customer_name": "   ", "items": []string{"widget"}})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_GetOrder(t *testing.T) {
	a := newAPI(t)
	created := a.createOrder()

	t.Run("should return the stored order", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/orders/"+created.Id.String(), "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[servers.Order](t, rec)
		assert.Equal(t, created.Id, got.Id)
		assert.Equal(t, created.Version, got.Version)
	})

	t.Run("should return 404 for an unknown order", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/orders/6f1c1f3e-8d5b-4a8e-9d64-3a7f1c2b9e10", "", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("should return 400 for a malformed id", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/orders/not-a-uuid", "", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_UpdateOrder(t *testing.T) {
	t.Run("should edit details and keep status and version", func(t *testing.T) {
		a := newAPI(t)
		created := a.createOrder()

		rec := a.do(http.MethodPatch, "/orders/"+created.Id.String(), "", map[string]any{
			"customer_name": "Grace",
			"items":         []string{"bolt"},
			"notes":         "side door",
		})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[servers.Order](t, rec)
		assert.Equal(t, "Grace", got.CustomerName)
		assert.Equal(t, []string{"bolt"}, got.Items)
		require.NotNil(t, got.Notes)
		assert.Equal(t, "side door", *got.Notes)
		assert.Equal(t, "pending", got.Status)
		assert.Equal(t, created.Version, got.Version)
		assert.Equal(t, servers.QueueCounts{Queued: 1}, a.queueStatus().Total)
	})

	t.Run("should refuse to set status", func(t *testing.T) {
		a := newAPI(t)
		created := a.createOrder()

		rec := a.do(http.MethodPatch, "/orders/"+created.Id.String(), "", map[string]any{
			"notes":  "rush",
			"status": "shipped",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		got := decode[servers.Order](t, a.do(http.MethodGet, "/orders/"+created.Id.String(), "", nil))
		assert.Equal(t, "pending", got.Status)
		assert.Nil(t, got.Notes)
	})

	t.Run("should reject an empty body", func(t *testing.T) {
		a := newAPI(t)
		created := a.createOrder()

		rec := a.do(http.MethodPatch, "/orders/"+created.Id.String(), "", map[string]any{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should return 404 for an unknown order", func(t *testing.T) {
		a := newAPI(t)

		rec := a.do(http.MethodPatch, "/orders/6f1c1f3e-8d5b-4a8e-9d64-3a7f1c2b9e10", "", map[string]any{"notes": "x"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_DeleteOrder(t *testing.T) {
	t.Run("should delete the order and withdraw its task", func(t *testing.T) {
		a := newAPI(t)
		created := a.createOrder()

		rec := a.do(http.MethodDelete, "/orders/"+created.Id.String(), "", nil)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, created.Id, decode[servers.Deleted](t, rec).Deleted)
		assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/orders/"+created.Id.String(), "", nil).Code)
		assert.Equal(t, servers.QueueCounts{}, a.queueStatus().Total)
		empty := a.claim("picker-1")
		require.Equal(t, http.StatusOK, empty.Code)
		assert.Equal(t, "no task available", decode[servers.Message](t, empty).Message)
	})

	t.Run("should retire a claimed task", func(t *testing.T) {
		a := newAPI(t)
		created := a.createOrder()
		claimed := decode[servers.Task](t, a.claim("picker-1"))

		rec := a.do(http.MethodDelete, "/orders/"+created.Id.String(), "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, servers.QueueCounts{}, a.queueStatus().Total)
		complete := a.do(http.MethodPost, "/queue/complete", fulfillment,
			map[string]any{"task_id": claimed.Id.String(), "agent_id": "picker-1"})
		assert.Equal(t, http.StatusBadRequest, complete.Code)
	})

	t.Run("should return 404 for an unknown order", func(t *testing.T) {
		a := newAPI(t)

		rec := a.do(http.MethodDelete, "/orders/6f1c1f3e-8d5b-4a8e-9d64-3a7f1c2b9e10", "", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_ListOrders(t *testing.T) {
	a := newAPI(t)
	first := a.createOrder()
	second := a.createOrder()

	rec := a.do(http.MethodGet, "/orders", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]servers.Order](t, rec)
	require.Len(t, got, 2)
	ids := []string{got[0].Id.String(), got[1].Id.String()}
	assert.ElementsMatch(t, []string{first.Id.String(), second.Id.String()}, ids)
}

func TestServer_RequestTransition(t *testing.T) {
	testCases := map[string]struct {
		role       string
		transition string
		wantCode   int
	}{
		"missing role":              {role: "", transition: "confirm", wantCode: http.StatusForbidden},
		"unknown role":              {role: "courier", transition: "confirm", wantCode: http.StatusForbidden},
		"wrong role":                {role: customer, transition: "confirm", wantCode: http.StatusForbidden},
		"unknown transition":        {role: fulfillment, transition: "teleport", wantCode: http.StatusBadRequest},
		"transition not from here":  {role: fulfillment, transition: "ship", wantCode: http.StatusBadRequest},
		"owning role confirms":      {role: fulfillment, transition: "confirm", wantCode: http.StatusOK},
		"role header is normalized": {role: " Fulfillment ", transition: "confirm", wantCode: http.StatusOK},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			a := newAPI(t)
			created := a.createOrder()

			rec := a.do(http.MethodPost, "/orders/"+created.Id.String()+"/transition", tc.role,
				map[string]any{"transition": tc.transition})

			assert.Equal(t, tc.wantCode, rec.Code, rec.Body.String())
		})
	}

	t.Run("should record notes and move the task forward", func(t *testing.T) {
		a := newAPI(t)
		created := a.createOrder()

		rec := a.do(http.MethodPost, "/orders/"+created.Id.String()+"/transition", fulfillment,
			map[string]any{"transition": "confirm", "notes": "stock checked"})

		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[servers.Order](t, rec)
		assert.Equal(t, "confirmed", got.Status)
		assert.Greater(t, got.Version, created.Version)
		require.Len(t, got.StatusHistory, 2)
		require.NotNil(t, got.StatusHistory[1].Notes)
		assert.Equal(t, "stock checked", *got.StatusHistory[1].Notes)
		assert.Equal(t, servers.QueueCounts{Queued: 1}, a.queueStatus().Total)
	})

	t.Run("should withdraw the active task on cancel", func(t *testing.T) {
		a := newAPI(t)
		created := a.createOrder()
		require.Equal(t, http.StatusOK, a.claim("picker-1").Code)

		rec := a.do(http.MethodPost, "/orders/"+created.Id.String()+"/transition", customer,
			map[string]any{"transition": "cancel"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cancelled", decode[servers.Order](t, rec).Status)
		assert.Equal(t, servers.QueueCounts{}, a.queueStatus().Total)

		again := a.do(http.MethodPost, "/orders/"+created.Id.String()+"/transition", customer,
			map[string]any{"transition": "cancel"})
		assert.Equal(t, http.StatusBadRequest, again.Code)
	})
}

func TestServer_AdvanceOrder(t *testing.T) {
	a := newAPI(t)
	created := a.createOrder()
	path := "/orders/" + created.Id.String() + "/advance"

	t.Run("should refuse customers", func(t *testing.T) {
		rec := a.do(http.MethodPost, path, customer, nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("should apply the next forward step", func(t *testing.T) {
		rec := a.do(http.MethodPost, path, fulfillment, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "confirmed", decode[servers.Order](t, rec).Status)
	})
}

func TestServer_QueueLifecycle(t *testing.T) {
	a := newAPI(t)
	created := a.createOrder()

	wantStatuses := []string{"confirmed", "picking", "packed", "shipped", "delivered"}
	for _, want := range wantStatuses {
		rec := a.claim("picker-1")
		require.Equal(t, http.StatusOK, rec.Code)
		claimed := decode[servers.Task](t, rec)
		assert.Equal(t, created.Id, claimed.OrderId)
		assert.Equal(t, "claimed", claimed.State)
		require.NotNil(t, claimed.ClaimedBy)
		assert.Equal(t, "picker-1", *claimed.ClaimedBy)
		require.NotNil(t, claimed.ClaimExpiry)

		rec = a.do(http.MethodPost, "/queue/complete", fulfillment,
			map[string]any{"task_id": claimed.Id.String(), "agent_id": "picker-1"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, want, decode[servers.Order](t, rec).Status)
	}

	rec := a.do(http.MethodGet, "/orders/"+created.Id.String()+"/timeline", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	timeline := decode[servers.Timeline](t, rec)
	assert.Equal(t, "delivered", timeline.CurrentStatus)
	assert.Len(t, timeline.StatusChanges, 6)
	for _, milestone := range []string{"placed", "confirmed", "picked", "packed", "shipped", "delivered"} {
		assert.Contains(t, timeline.FulfillmentTimestamps, milestone)
	}
	assert.NotContains(t, timeline.FulfillmentTimestamps, "cancelled")

	assert.Equal(t, servers.QueueCounts{}, a.queueStatus().Total)
	empty := a.claim("picker-1")
	require.Equal(t, http.StatusOK, empty.Code)
	assert.Equal(t, "no task available", decode[servers.Message](t, empty).Message)

	returned := a.do(http.MethodPost, "/orders/"+created.Id.String()+"/transition", customer,
		map[string]any{"transition": "return"})
	require.Equal(t, http.StatusOK, returned.Code)
	assert.Equal(t, "returned", decode[servers.Order](t, returned).Status)
	assert.Equal(t, servers.QueueCounts{}, a.queueStatus().Total)
}

func TestServer_ClaimTask(t *testing.T) {
	a := newAPI(t)

	t.Run("should report an empty queue", func(t *testing.T) {
		rec := a.claim("picker-1")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no task available", decode[servers.Message](t, rec).Message)
	})

	t.Run("should require agent_id", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/queue/claim", fulfillment, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should reject a lease out of range", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/queue/claim?agent_id=picker-1&lease_seconds=0", fulfillment, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should require a role", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/queue/claim?agent_id=picker-1", "", nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("should not hand fulfillment work to customers", func(t *testing.T) {
		a.createOrder()

		rec := a.do(http.MethodPost, "/queue/claim?agent_id=shopper", customer, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no task available", decode[servers.Message](t, rec).Message)
	})
}

func TestServer_CompleteTask(t *testing.T) {
	a := newAPI(t)
	a.createOrder()
	claimed := decode[servers.Task](t, a.claim("picker-1"))

	t.Run("should refuse another agent", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/queue/complete", fulfillment,
			map[string]any{"task_id": claimed.Id.String(), "agent_id": "picker-2"})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("should refuse the customer role", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/queue/complete", customer,
			map[string]any{"task_id": claimed.Id.String(), "agent_id": "picker-1"})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("should return 404 for an unknown task", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/queue/complete", fulfillment,
			map[string]any{"task_id": "6f1c1f3e-8d5b-4a8e-9d64-3a7f1c2b9e10", "agent_id": "picker-1"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_ReleaseTask(t *testing.T) {
	a := newAPI(t)
	a.createOrder()
	claimed := decode[servers.Task](t, a.claim("picker-1"))
	body := map[string]any{"task_id": claimed.Id.String()}

	t.Run("should refuse an agent that does not hold the claim", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/queue/release?agent_id=picker-2", fulfillment, body)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("should put the task back in the queue", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/queue/release?agent_id=picker-1", fulfillment, body)

		require.Equal(t, http.StatusOK, rec.Code)
		released := decode[servers.Task](t, rec)
		assert.Equal(t, "queued", released.State)
		assert.Nil(t, released.ClaimedBy)

		again := decode[servers.Task](t, a.claim("picker-2"))
		assert.Equal(t, claimed.Id, again.Id)
	})

	t.Run("should reject releasing a task that is not claimed by the caller", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/queue/release?agent_id=picker-1", fulfillment, body)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestServer_GetStateMachineInfo(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/state-machine/info", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[servers.StateMachineInfo](t, rec)
	assert.Equal(t, "pending", info.Initial)
	assert.ElementsMatch(t, []string{"delivered", "cancelled", "returned"}, info.Terminal)
	assert.Len(t, info.Transitions, 7)
	assert.Equal(t, []string{"cancel", "confirm"}, info.LegalTransitions["pending"])
	assert.Equal(t, []string{"return"}, info.LegalTransitions["delivered"])
	assert.Empty(t, info.LegalTransitions["cancelled"])
}

func TestServer_DocsAndMetrics(t *testing.T) {
	a := newAPI(t)
	a.createOrder()

	t.Run("should serve the OpenAPI document", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/openapi.json", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Warehouse Fulfillment API")
	})

	t.Run("should serve the swagger UI", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/swagger/index.html", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should expose service metrics", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/metrics", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `warehouse_tasks_enqueued_total{role="fulfillment"} 1`)
	})

	t.Run("should render unknown routes in the error shape", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/nowhere", "", nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, http.StatusNotFound, decode[servers.Error](t, rec).Code)
	})
}
