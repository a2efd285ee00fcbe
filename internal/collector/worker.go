package collector

import (
	"context"
	"time"

	"github.com/bundlewatch/bundlewatch/internal/config"
	"go.uber.org/zap"
)

// WorkerConfig controls the collection loop.
type WorkerConfig struct {
	Interval   time.Duration
	TickBudget time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.Interval <= 0 {
		c.Interval = 15 * time.Minute
	}
	if c.TickBudget <= 0 {
		c.TickBudget = 2 * time.Minute
	}
	return c
}

// NewWorkerConfig derives the loop settings from app configuration.
func NewWorkerConfig(cfg config.Config) WorkerConfig {
	return WorkerConfig{Interval: cfg.CollectInterval}.withDefaults()
}

// Worker runs ticks on a fixed interval. Failed ticks are logged and
// waited out; there is no retry inside an interval.
type Worker struct {
	collector *Collector
	log       *zap.Logger
	cfg       WorkerConfig
}

func NewWorker(collector *Collector, log *zap.Logger, cfg WorkerConfig) *Worker {
	return &Worker{
		collector: collector,
		log:       log.Named("collector.worker"),
		cfg:       cfg.withDefaults(),
	}
}

// RunForever ticks immediately, then on every interval until the
// context is cancelled.
func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := w.runOnce(ctx); err != nil {
			w.log.Warn("scheduled collection failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) runOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.TickBudget)
	defer cancel()
	return w.collector.RunOnce(ctx)
}
