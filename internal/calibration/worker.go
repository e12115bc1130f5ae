package calibration

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// Worker polls for pending calibration jobs and runs them. Fits are
// CPU-bound, so concurrency is capped rather than unbounded.
type Worker struct {
	service  *Service
	interval time.Duration
	workers  int
}

func NewWorker(service *Service, interval time.Duration, workers int) *Worker {
	if workers < 1 {
		workers = 1
	}
	return &Worker{service: service, interval: interval, workers: workers}
}

// Run polls until ctx is cancelled. Each tick drains the pending queue
// before going back to sleep.
func (w *Worker) Run(ctx context.Context) {
	log.Printf("[worker] calibration worker started: interval=%s workers=%d", w.interval, w.workers)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[worker] calibration worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain claims and runs jobs until the queue is empty or ctx ends.
// g.Go blocks once the limit is reached, which throttles claiming to
// match fit throughput.
func (w *Worker) drain(ctx context.Context) {
	g := new(errgroup.Group)
	g.SetLimit(w.workers)

	for ctx.Err() == nil {
		job, err := w.service.ClaimNext()
		if errors.Is(err, ErrNoPendingJobs) {
			break
		}
		if err != nil {
			log.Printf("[worker] claim failed: %v", err)
			break
		}
		g.Go(func() error {
			w.service.Execute(job)
			return nil
		})
	}
	g.Wait()
}
