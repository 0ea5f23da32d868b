// Package scheduler drives periodic ingestion cycles off a time.Ticker
// per platform, grounded on the teacher's EventAggregator.Start(ctx)
// ticker-loop idiom (internal/worker/webhook_receiver.go).
package scheduler

import (
	"context"
	"time"

	"github.com/rgangen24/leadgen/internal/jobqueue"
	"github.com/rgangen24/leadgen/internal/logging"
)

// Cycle is one named, periodic ingestion job.
type Cycle struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs a fixed set of Cycles, each on its own ticker,
// submitting each tick as a job on a shared jobqueue.Queue so ingestion
// work competes for the same worker pool as everything else.
type Scheduler struct {
	cycles []Cycle
	queue  *jobqueue.Queue
	stopCh chan struct{}
}

// New builds a Scheduler that enqueues onto queue.
func New(queue *jobqueue.Queue, cycles ...Cycle) *Scheduler {
	return &Scheduler{cycles: cycles, queue: queue, stopCh: make(chan struct{})}
}

// Start launches one ticker goroutine per cycle. It returns immediately;
// call Stop (or cancel ctx) to end the loops.
func (s *Scheduler) Start(ctx context.Context) {
	for _, c := range s.cycles {
		go s.loop(ctx, c)
	}
}

// Stop ends every ticker loop.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) loop(ctx context.Context, c Cycle) {
	logging.Info("scheduler_cycle_start", "cycle", c.Name, "interval", c.Interval.String())
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			cycle := c
			err := s.queue.Enqueue(ctx, jobqueue.Job{
				Name:       "ingest_" + cycle.Name,
				MaxRetries: 3,
				Backoff:    500 * time.Millisecond,
				Run:        cycle.Run,
			})
			if err != nil {
				logging.Warn("scheduler_enqueue_failed", "cycle", cycle.Name, "error", err.Error())
			}
		}
	}
}
