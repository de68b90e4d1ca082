// Package jobs provides scheduled background tasks for the warehouse service.
//
// Jobs are cron schedules built on github.com/robfig/cron/v3 with seconds
// precision. A run that is still going when the next tick fires is skipped.
//
// # Available Jobs
//
//  1. LeaseReclaimJob - returns tasks whose lease expired to their queue (default every 5 seconds)
//  2. QueueGaugeJob - refreshes the queued/claimed gauges from the task queue (every 15 seconds)
//
// # Usage
//
//	jobManager := jobs.NewJobManager(reclaimHandler, queueStatusHandler, metrics, cfg.ReclaimSchedule, logger)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// Each job also exposes RunOnce for one-shot use, e.g. the sweep CLI command.
//
// # Error Handling
//
// Run errors are logged and the schedule keeps going; storage outages
// therefore delay reclaiming but never stop it.
package jobs
