// internal/queue/queue.go
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// EnrichmentJob carries everything a worker needs to classify one stored
// message. Preview fields travel in the job because they are never persisted.
type EnrichmentJob struct {
	MessageRecordID int64  `json:"message_record_id"`
	TenantID        int64  `json:"tenant_id"`
	SubjectPreview  string `json:"subject_preview"`
	SenderDomain    string `json:"sender_domain"`
	Source          string `json:"source"`
}

// Queue accepts enrichment jobs fire-and-forget. Dispatch never blocks the
// caller; the return value reports whether the job was accepted.
type Queue interface {
	Dispatch(job EnrichmentJob) bool
}

// Handler processes one job. Failures are logged and counted, never retried.
type Handler func(ctx context.Context, job EnrichmentJob) error

// Dispatcher is the in-process queue: a fixed worker pool fed by a bounded
// channel. Workers run off context.Background(), so scheduled jobs complete
// even when the ingestion request that dispatched them is cancelled.
type Dispatcher struct {
	jobs    chan EnrichmentJob
	handler Handler
	logger  *zap.Logger
	wg      sync.WaitGroup

	processed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

func NewDispatcher(workers, queueSize int, handler Handler, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	d := &Dispatcher{
		jobs:    make(chan EnrichmentJob, queueSize),
		handler: handler,
		logger:  logger,
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for job := range d.jobs {
		// Own scope: never the ingestion request's context.
		if err := d.handler(context.Background(), job); err != nil {
			d.failed.Add(1)
			d.logger.Warn("enrichment job failed",
				zap.Int64("message_record_id", job.MessageRecordID),
				zap.Int64("tenant_id", job.TenantID),
				zap.Error(err),
			)
			continue
		}
		d.processed.Add(1)
	}
}

// Dispatch enqueues a job without blocking. When the queue is full the job is
// dropped and counted: enrichment is best-effort and the record simply stays
// unprocessed.
func (d *Dispatcher) Dispatch(job EnrichmentJob) bool {
	select {
	case d.jobs <- job:
		return true
	default:
		d.dropped.Add(1)
		d.logger.Warn("enrichment queue full, job dropped",
			zap.Int64("message_record_id", job.MessageRecordID),
		)
		return false
	}
}

// Shutdown stops accepting work and waits for in-flight jobs, up to the
// context deadline.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	close(d.jobs)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats reports lifetime processed/failed/dropped counts.
func (d *Dispatcher) Stats() (processed, failed, dropped int64) {
	return d.processed.Load(), d.failed.Load(), d.dropped.Load()
}

var _ Queue = (*Dispatcher)(nil)
