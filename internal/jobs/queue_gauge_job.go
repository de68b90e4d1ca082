package jobs

import (
	"context"
	"log/slog"

	"warehouse/internal/core/application/usecases/queries"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// DefaultGaugeSchedule refreshes queue depth gauges every fifteen seconds.
const DefaultGaugeSchedule = "*/15 * * * * *"

// QueueStatusReader reads per-role queue counts.
type QueueStatusReader interface {
	Handle(ctx context.Context, query queries.GetQueueStatusQuery) (task.QueueStatus, error)
}

// QueueGaugeJob copies queue counts into the queue depth gauges, so scrapes
// see backlog even when no request touches the queue.
type QueueGaugeJob struct {
	reader   QueueStatusReader
	metrics  ports.Metrics
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewQueueGaugeJob(reader QueueStatusReader, metrics ports.Metrics, schedule string, logger *slog.Logger) *QueueGaugeJob {
	if schedule == "" {
		schedule = DefaultGaugeSchedule
	}
	return &QueueGaugeJob{
		reader:   reader,
		metrics:  metrics,
		schedule: schedule,
		cron:     newCron(),
		logger:   logger.With("component", "queue_gauge_job"),
	}
}

func (j *QueueGaugeJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Queue gauge job started", "schedule", j.schedule)
	return nil
}

func (j *QueueGaugeJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Queue gauge job stopped")
}

// RunOnce reads the queue status and publishes it to the gauges.
func (j *QueueGaugeJob) RunOnce(ctx context.Context) error {
	status, err := j.reader.Handle(ctx, queries.NewGetQueueStatusQuery())
	if err != nil {
		return err
	}
	j.metrics.QueueDepth(status)
	return nil
}

func (j *QueueGaugeJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := j.RunOnce(ctx); err != nil {
		j.logger.ErrorContext(ctx, "Queue gauge job failed", "error", err)
	}
}
