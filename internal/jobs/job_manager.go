package jobs

import (
	"fmt"
	"log/slog"

	"warehouse/internal/core/ports"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	leaseReclaimJob *LeaseReclaimJob
	queueGaugeJob   *QueueGaugeJob
}

// NewJobManager creates the lease sweep and the queue gauge refresher.
func NewJobManager(
	reclaimer Reclaimer,
	statusReader QueueStatusReader,
	metrics ports.Metrics,
	reclaimSchedule string,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		leaseReclaimJob: NewLeaseReclaimJob(reclaimer, reclaimSchedule, logger),
		queueGaugeJob:   NewQueueGaugeJob(statusReader, metrics, DefaultGaugeSchedule, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.leaseReclaimJob.Start(); err != nil {
		return fmt.Errorf("failed to start lease reclaim job: %w", err)
	}

	if err := jm.queueGaugeJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.leaseReclaimJob.Stop()
		return fmt.Errorf("failed to start queue gauge job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs and waits for running ones to finish.
func (jm *JobManager) StopAll() {
	jm.queueGaugeJob.Stop()
	jm.leaseReclaimJob.Stop()
}
