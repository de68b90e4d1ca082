package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpadapter "warehouse/internal/adapters/in/http"
	"warehouse/internal/adapters/out/kafka"
	"warehouse/internal/adapters/out/metrics"
	"warehouse/internal/adapters/out/postgres"
	"warehouse/internal/adapters/out/postgres/orderrepo"
	"warehouse/internal/adapters/out/postgres/taskrepo"
	"warehouse/internal/adapters/out/redis/orderstore"
	"warehouse/internal/adapters/out/redis/taskqueue"
	"warehouse/internal/core/application/usecases/commands"
	"warehouse/internal/core/application/usecases/queries"
	"warehouse/internal/core/domain/model/workflow"
	"warehouse/internal/core/domain/services"
	"warehouse/internal/core/ports"
	"warehouse/internal/jobs"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot owns the adapters of one process and builds the use case
// handlers on top of them.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	orders  ports.OrderStore
	tasks   ports.TaskQueue
	events  ports.EventPublisher
	metrics *metrics.Prometheus

	definition  *workflow.Definition
	policy      services.TransitionPolicy
	transitions *commands.RequestTransitionCommandHandler

	gormDB  *gorm.DB
	closers []func() error
}

// NewCompositionRoot connects the configured storage backend and event
// publisher. Call Close when done.
func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	definition, err := workflow.Default()
	if err != nil {
		return nil, err
	}
	policy, err := services.NewTransitionPolicy(definition)
	if err != nil {
		return nil, err
	}

	c := &CompositionRoot{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics.NewPrometheus(),
		definition: definition,
		policy:     policy,
	}

	if err = c.openStorage(ctx); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	if err = c.openEvents(); err != nil {
		return nil, errors.Join(err, c.Close())
	}

	c.transitions = commands.NewRequestTransitionCommandHandler(
		c.orders, c.tasks, c.policy, c.events, c.metrics, logger,
		commands.WithMaxAttempts(cfg.TransitionMaxAttempts),
	)
	return c, nil
}

func (c *CompositionRoot) openStorage(ctx context.Context) error {
	switch c.cfg.StorageBackend {
	case BackendPostgres:
		db, err := postgres.Open(c.cfg.Postgres().DSN())
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("postgres handle: %w", err)
		}
		c.closers = append(c.closers, sqlDB.Close)
		if err = sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		c.gormDB = db
		c.orders = orderrepo.NewGormOrderRepository(db)
		c.tasks = taskrepo.NewGormTaskRepository(db)
	default:
		client := redis.NewClient(&redis.Options{
			Addr:     c.cfg.RedisAddr,
			Password: c.cfg.RedisPassword,
			DB:       c.cfg.RedisDB,
		})
		c.closers = append(c.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		c.orders = orderstore.NewStore(client)
		c.tasks = taskqueue.NewQueue(client)
	}
	c.logger.Info("storage connected", "backend", c.cfg.StorageBackend)
	return nil
}

func (c *CompositionRoot) openEvents() error {
	brokers := c.cfg.KafkaBrokers()
	if len(brokers) == 0 {
		c.events = kafka.NopPublisher{}
		return nil
	}
	publisher, err := kafka.NewPublisher(brokers, c.cfg.KafkaOrderChangedTopic)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, func() error {
		publisher.Close()
		return nil
	})
	c.events = publisher
	c.logger.Info("publishing order events", "brokers", brokers, "topic", c.cfg.KafkaOrderChangedTopic)
	return nil
}

// Migrate creates the relational schema. It is a no-op for Redis.
func (c *CompositionRoot) Migrate(ctx context.Context) error {
	if c.gormDB == nil {
		return nil
	}
	return postgres.Migrate(ctx, c.gormDB)
}

// Close releases connections in reverse order of opening.
func (c *CompositionRoot) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *CompositionRoot) Metrics() *metrics.Prometheus { return c.metrics }

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orders, c.tasks, c.policy, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateUpdateOrderCommandHandler() commands.UpdateOrderCommandHandler {
	return commands.NewUpdateOrderCommandHandler(c.orders, c.logger)
}

func (c *CompositionRoot) CreateDeleteOrderCommandHandler() commands.DeleteOrderCommandHandler {
	return commands.NewDeleteOrderCommandHandler(c.orders, c.tasks, c.logger)
}

func (c *CompositionRoot) CreateRequestTransitionCommandHandler() *commands.RequestTransitionCommandHandler {
	return c.transitions
}

func (c *CompositionRoot) CreateAdvanceOrderCommandHandler() commands.AdvanceOrderCommandHandler {
	return commands.NewAdvanceOrderCommandHandler(c.transitions)
}

func (c *CompositionRoot) CreateClaimTaskCommandHandler() commands.ClaimTaskCommandHandler {
	return commands.NewClaimTaskCommandHandler(c.tasks, c.metrics, c.logger, c.cfg.LeaseDuration)
}

func (c *CompositionRoot) CreateCompleteTaskCommandHandler() commands.CompleteTaskCommandHandler {
	return commands.NewCompleteTaskCommandHandler(c.tasks, c.orders, c.transitions, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateReleaseTaskCommandHandler() commands.ReleaseTaskCommandHandler {
	return commands.NewReleaseTaskCommandHandler(c.tasks, c.logger)
}

func (c *CompositionRoot) CreateReclaimExpiredTasksCommandHandler() commands.ReclaimExpiredTasksCommandHandler {
	return commands.NewReclaimExpiredTasksCommandHandler(c.tasks, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateGetQueueStatusQueryHandler() queries.GetQueueStatusQueryHandler {
	return queries.NewGetQueueStatusQueryHandler(c.tasks)
}

// CreateServer wires every use case into the HTTP server.
func (c *CompositionRoot) CreateServer() *httpadapter.Server {
	createOrder := c.CreateCreateOrderCommandHandler()
	return httpadapter.NewServer(
		httpadapter.CommandHandlers{
			CreateOrder:       &createOrder,
			UpdateOrder:       c.CreateUpdateOrderCommandHandler(),
			DeleteOrder:       c.CreateDeleteOrderCommandHandler(),
			RequestTransition: c.CreateRequestTransitionCommandHandler(),
			AdvanceOrder:      c.CreateAdvanceOrderCommandHandler(),
			ClaimTask:         c.CreateClaimTaskCommandHandler(),
			CompleteTask:      c.CreateCompleteTaskCommandHandler(),
			ReleaseTask:       c.CreateReleaseTaskCommandHandler(),
		},
		httpadapter.QueryHandlers{
			GetOrder:            queries.NewGetOrderQueryHandler(c.orders),
			ListOrders:          queries.NewListOrdersQueryHandler(c.orders),
			GetTimeline:         queries.NewGetTimelineQueryHandler(c.orders),
			GetQueueStatus:      c.CreateGetQueueStatusQueryHandler(),
			GetStateMachineInfo: queries.NewGetStateMachineInfoQueryHandler(c.definition),
		},
	)
}

// CreateRouter builds the echo instance serving the API and /metrics.
func (c *CompositionRoot) CreateRouter() (*echo.Echo, error) {
	return httpadapter.NewRouter(c.CreateServer(), httpadapter.RouterConfig{
		Logger:  c.logger,
		Metrics: c.metrics.Handler(),
	})
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateReclaimExpiredTasksCommandHandler(),
		c.CreateGetQueueStatusQueryHandler(),
		c.metrics,
		c.cfg.ReclaimSchedule,
		c.logger,
	)
}
