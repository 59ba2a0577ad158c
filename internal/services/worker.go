package services

import (
	"context"
	"sync"
	"time"

	"jobboard/recommendation-service/internal/pkg/logger"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
}

// periodicWorker runs a single tick function on a fixed interval until stopped.
type periodicWorker struct {
	name     string
	interval time.Duration
	tick     func(ctx context.Context)
	log      *logger.Logger
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

func newPeriodicWorker(name string, interval time.Duration, tick func(ctx context.Context), log *logger.Logger) *periodicWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &periodicWorker{
		name:     name,
		interval: interval,
		tick:     tick,
		log:      log,
		stopChan: make(chan struct{}),
	}
}

func (w *periodicWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
	w.log.Info("🚀 worker started", "worker", w.name, "interval", w.interval)
}

func (w *periodicWorker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("🛑 stopping worker", "worker", w.name)
		close(w.stopChan)
	})
	w.wg.Wait()
}

func (w *periodicWorker) loop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			w.log.Info("✅ worker stopped", "worker", w.name)
			return
		case <-ctx.Done():
			w.log.Info("✅ worker stopped", "worker", w.name, "reason", ctx.Err())
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}
