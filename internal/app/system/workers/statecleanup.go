// internal/app/system/workers/statecleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ExpiredRemover deletes records whose expiry has passed.
type ExpiredRemover interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// StateCleanup is a background worker that removes expired OAuth state
// tokens between runs of the MongoDB TTL monitor.
type StateCleanup struct {
	states   ExpiredRemover
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStateCleanup creates a cleanup worker that runs every interval.
func NewStateCleanup(states ExpiredRemover, logger *zap.Logger, interval time.Duration) *StateCleanup {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StateCleanup{
		states:   states,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *StateCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("oauth state cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *StateCleanup) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("oauth state cleanup worker stopped")
	})
}

func (w *StateCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs a single cleanup pass.
func (w *StateCleanup) RunOnce() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	defer cancel()

	count, err := w.states.CleanupExpired(ctx)
	if err != nil {
		w.log.Error("failed to remove expired oauth states", zap.Error(err))
		return 0
	}
	if count > 0 {
		w.log.Info("removed expired oauth states", zap.Int64("count", count))
	}
	return count
}
