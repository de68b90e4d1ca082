// Package metrics exports service activity as Prometheus collectors.
package metrics

import (
	"net/http"

	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/domain/model/workflow"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "warehouse"

// Prometheus implements ports.Metrics on its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	transitionsApplied  *prometheus.CounterVec
	transitionsRejected *prometheus.CounterVec
	versionConflicts    prometheus.Counter
	tasksEnqueued       *prometheus.CounterVec
	tasksClaimed        *prometheus.CounterVec
	tasksCompleted      *prometheus.CounterVec
	tasksReclaimed      prometheus.Counter
	queueDepth          *prometheus.GaugeVec
}

// NewPrometheus registers the service collectors, plus Go runtime and
// process collectors, on a fresh registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		transitionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_applied_total",
			Help:      "Order status transitions written to the store.",
		}, []string{"transition", "role"}),
		transitionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_rejected_total",
			Help:      "Transition requests refused, by reason.",
		}, []string{"reason"}),
		versionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_total",
			Help:      "Conditional status writes that lost to a concurrent writer.",
		}),
		tasksEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_enqueued_total",
			Help:      "Tasks added to a role queue.",
		}, []string{"role"}),
		tasksClaimed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_claimed_total",
			Help:      "Tasks leased to an agent.",
		}, []string{"role"}),
		tasksCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Tasks completed for the first time.",
		}, []string{"role"}),
		tasksReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_reclaimed_total",
			Help:      "Claims returned to the queue after their lease expired.",
		}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_tasks",
			Help:      "Tasks currently queued or claimed, per role.",
		}, []string{"role", "state"}),
	}

	p.registry.MustRegister(
		p.transitionsApplied,
		p.transitionsRejected,
		p.versionConflicts,
		p.tasksEnqueued,
		p.tasksClaimed,
		p.tasksCompleted,
		p.tasksReclaimed,
		p.queueDepth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *Prometheus) TransitionApplied(name workflow.TransitionName, role kernel.Role) {
	p.transitionsApplied.WithLabelValues(name.String(), role.String()).Inc()
}

func (p *Prometheus) TransitionRejected(reason string) {
	p.transitionsRejected.WithLabelValues(reason).Inc()
}

func (p *Prometheus) VersionConflict() {
	p.versionConflicts.Inc()
}

func (p *Prometheus) TaskEnqueued(role kernel.Role) {
	p.tasksEnqueued.WithLabelValues(role.String()).Inc()
}

func (p *Prometheus) TaskClaimed(role kernel.Role) {
	p.tasksClaimed.WithLabelValues(role.String()).Inc()
}

func (p *Prometheus) TaskCompleted(role kernel.Role) {
	p.tasksCompleted.WithLabelValues(role.String()).Inc()
}

func (p *Prometheus) TasksReclaimed(count int) {
	if count > 0 {
		p.tasksReclaimed.Add(float64(count))
	}
}

// QueueDepth replaces the queue gauges with a fresh snapshot.
func (p *Prometheus) QueueDepth(status task.QueueStatus) {
	for role, counts := range status {
		p.queueDepth.WithLabelValues(role.String(), task.StateQueued.String()).Set(float64(counts.Queued))
		p.queueDepth.WithLabelValues(role.String(), task.StateClaimed.String()).Set(float64(counts.Claimed))
	}
}
