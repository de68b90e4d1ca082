package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"warehouse/internal/core/application/usecases/commands"
	"warehouse/internal/core/application/usecases/queries"
	"warehouse/internal/core/domain/model/kernel"
	"warehouse/internal/core/domain/model/task"
	"warehouse/internal/core/ports"
	"warehouse/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeReclaimer struct {
	calls atomic.Int32
	n     int
	err   error
}

func (f *fakeReclaimer) Handle(context.Context, commands.ReclaimExpiredTasksCommand) (int, error) {
	f.calls.Add(1)
	return f.n, f.err
}

type fakeStatusReader struct {
	status task.QueueStatus
	err    error
}

func (f fakeStatusReader) Handle(context.Context, queries.GetQueueStatusQuery) (task.QueueStatus, error) {
	return f.status, f.err
}

// depthRecorder records QueueDepth calls; other metrics are not expected.
type depthRecorder struct {
	ports.Metrics

	mu   sync.Mutex
	seen []task.QueueStatus
}

func (r *depthRecorder) QueueDepth(status task.QueueStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, status)
}

func TestLeaseReclaimJob_RunOnce(t *testing.T) {
	t.Run("should return the reclaimed count", func(t *testing.T) {
		reclaimer := &fakeReclaimer{n: 3}
		job := jobs.NewLeaseReclaimJob(reclaimer, "", discardLogger())

		n, err := job.RunOnce(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("should pass errors through", func(t *testing.T) {
		boom := errors.New("redis down")
		job := jobs.NewLeaseReclaimJob(&fakeReclaimer{err: boom}, "", discardLogger())

		_, err := job.RunOnce(context.Background())

		require.ErrorIs(t, err, boom)
	})
}

func TestLeaseReclaimJob_Schedule(t *testing.T) {
	t.Run("should reject an invalid schedule", func(t *testing.T) {
		job := jobs.NewLeaseReclaimJob(&fakeReclaimer{}, "every now and then", discardLogger())

		require.Error(t, job.Start())
	})

	t.Run("should sweep on schedule and keep going after errors", func(t *testing.T) {
		reclaimer := &fakeReclaimer{err: errors.New("redis down")}
		job := jobs.NewLeaseReclaimJob(reclaimer, "* * * * * *", discardLogger())

		require.NoError(t, job.Start())
		t.Cleanup(job.Stop)

		assert.Eventually(t, func() bool { return reclaimer.calls.Load() >= 2 }, 4*time.Second, 50*time.Millisecond)
	})
}

func TestQueueGaugeJob_RunOnce(t *testing.T) {
	t.Run("should publish the queue status", func(t *testing.T) {
		status := task.NewQueueStatus()
		status[kernel.RoleFulfillment] = task.Counts{Queued: 4, Claimed: 1}
		recorder := &depthRecorder{}
		job := jobs.NewQueueGaugeJob(fakeStatusReader{status: status}, recorder, "", discardLogger())

		require.NoError(t, job.RunOnce(context.Background()))

		require.Len(t, recorder.seen, 1)
		assert.Equal(t, status, recorder.seen[0])
	})

	t.Run("should leave gauges alone when the queue is unreadable", func(t *testing.T) {
		recorder := &depthRecorder{}
		job := jobs.NewQueueGaugeJob(fakeStatusReader{err: errors.New("redis down")}, recorder, "", discardLogger())

		require.Error(t, job.RunOnce(context.Background()))

		assert.Empty(t, recorder.seen)
	})
}

func TestJobManager(t *testing.T) {
	t.Run("should fail to start with a bad reclaim schedule", func(t *testing.T) {
		jm := jobs.NewJobManager(&fakeReclaimer{}, fakeStatusReader{}, &depthRecorder{}, "bogus", discardLogger())

		require.Error(t, jm.StartAll())
	})

	t.Run("should start and stop every job", func(t *testing.T) {
		reclaimer := &fakeReclaimer{}
		jm := jobs.NewJobManager(reclaimer, fakeStatusReader{status: task.NewQueueStatus()}, &depthRecorder{},
			"* * * * * *", discardLogger())

		require.NoError(t, jm.StartAll())
		assert.Eventually(t, func() bool { return reclaimer.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
		jm.StopAll()
	})
}
