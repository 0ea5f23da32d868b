// Package jobqueue is a bounded, in-process FIFO work queue with a fixed
// worker pool, generalized from the teacher's SendWorkerPool lifecycle
// (Start/Stop/wg.Wait, atomic counters) from "send one email" jobs to
// arbitrary retryable closures, matching the Python original's generic
// Job{fn, args, retries, backoff} shape.
package jobqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rgangen24/leadgen/internal/logging"
)

// Job is one unit of retryable work.
type Job struct {
	Name       string
	Run        func(ctx context.Context) error
	MaxRetries int
	Backoff    time.Duration
}

// FailedJob records a job that exhausted its retries.
type FailedJob struct {
	Job     Job
	Err     error
	Attempt int
}

// Queue is a bounded channel-backed FIFO processed by a fixed pool of
// workers. A job that returns an error is run at most MaxRetries times in
// all, waiting Backoff*2^(attempt-1) after each failed attempt, before
// landing in the dead letter list.
type Queue struct {
	jobs         chan Job
	numWorkers   int
	pollInterval time.Duration

	totalProcessed int64
	totalFailed    int64
	totalRetried   int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	deadLetterMu sync.Mutex
	deadLetter   []FailedJob
}

// New builds a Queue with the given worker count and channel capacity.
func New(numWorkers, capacity int) *Queue {
	if numWorkers <= 0 {
		numWorkers = 2
	}
	if capacity <= 0 {
		capacity = 256
	}
	return &Queue{
		jobs:         make(chan Job, capacity),
		numWorkers:   numWorkers,
		pollInterval: 100 * time.Millisecond,
	}
}

// Start launches the worker pool. Calling Start on an already-running
// queue is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.ctx, q.cancel = context.WithCancel(context.Background())
	q.mu.Unlock()

	logging.Info("jobqueue_start", "workers", q.numWorkers)
	for i := 0; i < q.numWorkers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop cancels the worker context and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	logging.Info("jobqueue_stop", "processed", atomic.LoadInt64(&q.totalProcessed), "failed", atomic.LoadInt64(&q.totalFailed))
}

// Enqueue submits a job, blocking if the queue is at capacity. It returns
// ctx.Err() if ctx is cancelled before the job is accepted.
func (q *Queue) Enqueue(ctx context.Context, j Job) error {
	if j.MaxRetries <= 0 {
		j.MaxRetries = 1
	}
	if j.Backoff <= 0 {
		j.Backoff = 500 * time.Millisecond
	}
	select {
	case q.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats reports cumulative counters.
func (q *Queue) Stats() map[string]int64 {
	return map[string]int64{
		"total_processed": atomic.LoadInt64(&q.totalProcessed),
		"total_failed":    atomic.LoadInt64(&q.totalFailed),
		"total_retried":   atomic.LoadInt64(&q.totalRetried),
	}
}

// DeadLetter returns a snapshot of jobs that exhausted their retries.
func (q *Queue) DeadLetter() []FailedJob {
	q.deadLetterMu.Lock()
	defer q.deadLetterMu.Unlock()
	out := make([]FailedJob, len(q.deadLetter))
	copy(out, q.deadLetter)
	return out
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case j, ok := <-q.jobs:
			if !ok {
				return
			}
			q.runWithRetry(j)
		}
	}
}

func (q *Queue) runWithRetry(j Job) {
	var lastErr error
	for attempt := 1; attempt <= j.MaxRetries; attempt++ {
		err := j.Run(q.ctx)
		if err == nil {
			atomic.AddInt64(&q.totalProcessed, 1)
			return
		}
		lastErr = err
		logging.Warn("jobqueue_job_failed", "job", j.Name, "attempt", attempt, "error", err.Error())
		if attempt < j.MaxRetries {
			atomic.AddInt64(&q.totalRetried, 1)
			delay := j.Backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-q.ctx.Done():
				return
			}
		}
	}
	atomic.AddInt64(&q.totalFailed, 1)
	q.deadLetterMu.Lock()
	q.deadLetter = append(q.deadLetter, FailedJob{Job: j, Err: lastErr, Attempt: j.MaxRetries})
	q.deadLetterMu.Unlock()
	logging.Error("jobqueue_job_dead_letter", "job", j.Name, "error", lastErr.Error())
}
