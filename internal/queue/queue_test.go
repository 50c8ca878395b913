package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcher_ProcessesAllJobs(t *testing.T) {
	var processed atomic.Int64
	d := NewDispatcher(2, 16, func(ctx context.Context, job EnrichmentJob) error {
		processed.Add(1)
		return nil
	}, zap.NewNop())

	for i := 0; i < 10; i++ {
		require.True(t, d.Dispatch(EnrichmentJob{MessageRecordID: int64(i)}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	assert.Equal(t, int64(10), processed.Load())
	ok, failed, dropped := d.Stats()
	assert.Equal(t, int64(10), ok)
	assert.Equal(t, int64(0), failed)
	assert.Equal(t, int64(0), dropped)
}

func TestDispatcher_BoundedConcurrency(t *testing.T) {
	const workers = 3

	var current, peak atomic.Int64
	var mu sync.Mutex

	d := NewDispatcher(workers, 64, func(ctx context.Context, job EnrichmentJob) error {
		n := current.Add(1)
		mu.Lock()
		if n > peak.Load() {
			peak.Store(n)
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		current.Add(-1)
		return nil
	}, zap.NewNop())

	for i := 0; i < 20; i++ {
		d.Dispatch(EnrichmentJob{MessageRecordID: int64(i)})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	assert.LessOrEqual(t, peak.Load(), int64(workers))
}

func TestDispatcher_FailuresCountedNotRetried(t *testing.T) {
	var calls atomic.Int64
	d := NewDispatcher(1, 8, func(ctx context.Context, job EnrichmentJob) error {
		calls.Add(1)
		return errors.New("classifier timeout")
	}, zap.NewNop())

	d.Dispatch(EnrichmentJob{MessageRecordID: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	// Exactly one attempt: no automatic retry.
	assert.Equal(t, int64(1), calls.Load())
	_, failed, _ := d.Stats()
	assert.Equal(t, int64(1), failed)
}

func TestDispatcher_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	block := make(chan struct{})
	d := NewDispatcher(1, 1, func(ctx context.Context, job EnrichmentJob) error {
		<-block
		return nil
	}, zap.NewNop())

	// First job occupies the worker, second fills the queue.
	require.True(t, d.Dispatch(EnrichmentJob{MessageRecordID: 1}))
	// Give the worker a chance to pick up job 1 so the buffer is free for 2.
	time.Sleep(20 * time.Millisecond)
	require.True(t, d.Dispatch(EnrichmentJob{MessageRecordID: 2}))

	accepted := d.Dispatch(EnrichmentJob{MessageRecordID: 3})
	assert.False(t, accepted)
	_, _, dropped := d.Stats()
	assert.Equal(t, int64(1), dropped)

	close(block)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))
}

func TestDispatcher_JobsOutliveCallerContext(t *testing.T) {
	started := make(chan struct{})
	finish := make(chan struct{})
	var sawCancel atomic.Bool

	d := NewDispatcher(1, 8, func(ctx context.Context, job EnrichmentJob) error {
		close(started)
		<-finish
		// The worker context must not inherit the caller's cancellation.
		if ctx.Err() != nil {
			sawCancel.Store(true)
		}
		return nil
	}, zap.NewNop())

	reqCtx, cancelReq := context.WithCancel(context.Background())
	d.Dispatch(EnrichmentJob{MessageRecordID: 1})
	<-started
	cancelReq()
	_ = reqCtx
	close(finish)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	assert.False(t, sawCancel.Load())
}
