package worker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Reconciler runs SyncWorker.Reconcile on a fixed interval.
type Reconciler struct {
	worker   *SyncWorker
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReconciler(worker *SyncWorker, interval time.Duration) *Reconciler {
	return &Reconciler{worker: worker, interval: interval}
}

// Start begins the loop. The first pass runs immediately. Returns an error
// if already running.
func (r *Reconciler) Start(ctx context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("invalid reconcile interval %v", r.interval)
	}
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reconciler is already running")
	}
	r.running = true
	stop, done := make(chan struct{}), make(chan struct{})
	r.stopCh, r.doneCh = stop, done
	r.mu.Unlock()

	go r.runLoop(ctx, stop, done)

	r.worker.logger.InfoContext(ctx, "Reconciler started", "interval", r.interval)
	return nil
}

// Stop signals the loop and waits for the current pass to finish.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stopCh)
	done := r.doneCh
	r.mu.Unlock()

	select {
	case <-done:
		r.worker.logger.InfoContext(ctx, "Reconciler stopped gracefully")
		return nil
	case <-ctx.Done():
		r.worker.logger.WarnContext(ctx, "Reconciler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the loop is active
func (r *Reconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// runLoop owns stop and done for one Start; a later Start gets its own pair.
func (r *Reconciler) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.pass(ctx)
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *Reconciler) pass(ctx context.Context) {
	if _, err := r.worker.Reconcile(ctx); err != nil && ctx.Err() == nil {
		r.worker.logger.ErrorContext(ctx, "Reconcile failed", "error", err)
	}
}
