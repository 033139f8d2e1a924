package video

import (
	"context"
	"sync"
	"time"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
)

// DispatchJob is one queued hand-off to the worker
type DispatchJob struct {
	Endpoint string
	Payload  gateway.DispatchPayload
}

// DispatchQueue delivers jobs to the external worker in the background so
// dispatch latency never holds a request open. Delivery is best-effort:
// a full queue or a failed call is logged and the job stays pending. The
// dispatcher retries transient failures, so the worker may receive a job
// more than once and should deduplicate by video id.
type DispatchQueue struct {
	logger     coreport.Logger
	observer   Observer
	dispatcher gateway.VideoDispatcher
	timeout    time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan DispatchJob
	wg     sync.WaitGroup
}

// NewDispatchQueue starts workers goroutines reading from a queue of size
func NewDispatchQueue(
	dispatcher gateway.VideoDispatcher,
	workers int,
	size int,
	timeout time.Duration,
	logger coreport.Logger,
	observer Observer,
) *DispatchQueue {
	if dispatcher == nil {
		panic("video dispatcher cannot be nil")
	}
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 100
	}
	if observer == nil {
		observer = nopObserver{}
	}

	q := &DispatchQueue{
		logger:     logger,
		observer:   observer,
		dispatcher: dispatcher,
		timeout:    timeout,
		jobs:       make(chan DispatchJob, size),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work(i)
	}
	return q
}

// Enqueue schedules job without blocking; it reports whether job was accepted
func (q *DispatchQueue) Enqueue(job DispatchJob) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.logger.Warn("Dispatch queue closed, job not sent", map[string]any{
			"video_id": job.Payload.VideoID,
		})
		q.observer.QueueDropped()
		return false
	}

	select {
	case q.jobs <- job:
		q.logger.Debug("Dispatch job enqueued", map[string]any{
			"video_id": job.Payload.VideoID,
			"service":  job.Payload.Service,
		})
		return true
	default:
		q.logger.Error("Dispatch queue full, job not sent", map[string]any{
			"video_id": job.Payload.VideoID,
			"capacity": cap(q.jobs),
		})
		q.observer.QueueDropped()
		return false
	}
}

func (q *DispatchQueue) work(id int) {
	defer q.wg.Done()

	for job := range q.jobs {
		q.deliver(job, id)
	}
}

func (q *DispatchQueue) deliver(job DispatchJob, worker int) {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	err := q.dispatcher.Dispatch(ctx, job.Endpoint, job.Payload)
	q.observer.DispatchFinished(job.Payload.Service, err)
	if err != nil {
		// The job stays pending; a late callback may still resolve it.
		q.logger.Error("Failed to dispatch video job", map[string]any{
			"video_id": job.Payload.VideoID,
			"service":  job.Payload.Service,
			"model":    job.Payload.Model,
			"worker":   worker,
			"error":    err.Error(),
		})
		return
	}
	q.logger.Info("Video job dispatched", map[string]any{
		"video_id": job.Payload.VideoID,
		"service":  job.Payload.Service,
		"model":    job.Payload.Model,
	})
}

// Shutdown stops accepting jobs, drains the queue and waits for the workers
// or for ctx to end
func (q *DispatchQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("Dispatch queue drained", nil)
		return nil
	case <-ctx.Done():
		q.logger.Warn("Dispatch queue shutdown timed out", map[string]any{
			"pending": len(q.jobs),
		})
		return ctx.Err()
	}
}
