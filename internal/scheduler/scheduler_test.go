package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	calls   atomic.Int32
	active  atomic.Int32
	overlap atomic.Bool
	hold    time.Duration
	once    sync.Once
	first   chan struct{}
}

func (j *countingJob) RunCycle(ctx context.Context) error {
	if j.active.Add(1) > 1 {
		j.overlap.Store(true)
	}
	defer j.active.Add(-1)
	j.calls.Add(1)
	j.once.Do(func() { close(j.first) })
	time.Sleep(j.hold)
	return nil
}

func TestStartRunsImmediatelyWithoutOverlap(t *testing.T) {
	job := &countingJob{hold: 300 * time.Millisecond, first: make(chan struct{})}
	s := New(50*time.Millisecond, true, slog.Default())
	require.NoError(t, s.Start(context.Background(), job))
	defer s.Stop()

	select {
	case <-job.first:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}

	time.Sleep(400 * time.Millisecond)
	assert.False(t, job.overlap.Load(), "ticks must not run concurrently")
	assert.GreaterOrEqual(t, job.calls.Load(), int32(1))
}

func TestWaitForSchedule(t *testing.T) {
	job := &countingJob{first: make(chan struct{})}
	s := New(time.Hour, false, slog.Default())
	require.NoError(t, s.Start(context.Background(), job))
	defer s.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, job.calls.Load())
	assert.True(t, s.NextRun().After(time.Now().Add(50*time.Minute)))
}

func TestStartRejectsZeroInterval(t *testing.T) {
	s := New(0, true, nil)
	assert.Error(t, s.Start(context.Background(), &countingJob{first: make(chan struct{})}))
}
