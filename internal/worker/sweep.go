package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/obs"
)

// Sweeper drops expired cache entries and reports removals per cache.
type Sweeper interface {
	Sweep() map[string]int
}

// SweepWorker periodically sweeps expired entries out of the listing caches.
type SweepWorker struct {
	sweeper  Sweeper
	interval time.Duration
	metrics  *obs.Metrics
}

// NewSweepWorker creates a new SweepWorker. metrics may be nil.
func NewSweepWorker(sweeper Sweeper, interval time.Duration, metrics *obs.Metrics) *SweepWorker {
	return &SweepWorker{
		sweeper:  sweeper,
		interval: interval,
		metrics:  metrics,
	}
}

// Run starts the sweep loop. It blocks until the context is cancelled.
func (w *SweepWorker) Run(ctx context.Context) {
	slog.Info("SweepWorker: starting", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SweepWorker: shutting down")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *SweepWorker) sweep() {
	total := 0
	for name, n := range w.sweeper.Sweep() {
		w.metrics.AddCacheSwept(name, n)
		total += n
	}
	if total > 0 {
		slog.Debug("SweepWorker: removed expired entries", "count", total)
	}
}
