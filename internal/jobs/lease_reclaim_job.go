package jobs

import (
	"context"
	"log/slog"
	"time"

	"warehouse/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DefaultReclaimSchedule runs the lease sweep every five seconds.
const DefaultReclaimSchedule = "*/5 * * * * *"

// runTimeout bounds a single job run.
const runTimeout = 10 * time.Second

// Reclaimer runs one lease sweep.
type Reclaimer interface {
	Handle(ctx context.Context, cmd commands.ReclaimExpiredTasksCommand) (int, error)
}

// LeaseReclaimJob returns tasks with expired leases to their queues.
type LeaseReclaimJob struct {
	handler  Reclaimer
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewLeaseReclaimJob creates the sweep job. An empty schedule means
// DefaultReclaimSchedule; schedules use the six-field cron format with seconds.
func NewLeaseReclaimJob(handler Reclaimer, schedule string, logger *slog.Logger) *LeaseReclaimJob {
	if schedule == "" {
		schedule = DefaultReclaimSchedule
	}
	return &LeaseReclaimJob{
		handler:  handler,
		schedule: schedule,
		cron:     newCron(),
		logger:   logger.With("component", "lease_reclaim_job"),
	}
}

// Start schedules the sweep.
func (j *LeaseReclaimJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Lease reclaim job started", "schedule", j.schedule)
	return nil
}

// Stop unschedules the sweep and waits for a running sweep to finish.
func (j *LeaseReclaimJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Lease reclaim job stopped")
}

// RunOnce performs a single sweep and returns the number of reclaimed tasks.
func (j *LeaseReclaimJob) RunOnce(ctx context.Context) (int, error) {
	return j.handler.Handle(ctx, commands.NewReclaimExpiredTasksCommand())
}

func (j *LeaseReclaimJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		j.logger.ErrorContext(ctx, "Lease reclaim job failed", "error", err)
	}
}

// newCron builds a scheduler with seconds precision that skips a run while
// the previous one is still going.
func newCron() *cron.Cron {
	return cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
}
