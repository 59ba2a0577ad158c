package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jobboard/recommendation-service/internal/models"
	"jobboard/recommendation-service/internal/pkg/clock"
	"jobboard/recommendation-service/internal/pkg/logger"
	"jobboard/recommendation-service/internal/repositories"
)

type AlertScheduler interface {
	Worker
	// Tick fires every alert that is due now and returns how many were delivered.
	Tick(ctx context.Context) (int, error)
}

type AlertSchedulerConfig struct {
	Interval    time.Duration
	BatchSize   int
	Concurrency int
}

type alertScheduler struct {
	*periodicWorker
	searchRepo  repositories.SavedSearchRepository
	notifier    Notifier
	clock       clock.Clock
	batchSize   int
	concurrency int
	log         *logger.Logger
}

func NewAlertScheduler(
	searchRepo repositories.SavedSearchRepository,
	notifier Notifier,
	clk clock.Clock,
	cfg AlertSchedulerConfig,
	log *logger.Logger,
) AlertScheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	s := &alertScheduler{
		searchRepo:  searchRepo,
		notifier:    notifier,
		clock:       clk,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		log:         log.Named("alert_scheduler"),
	}
	s.periodicWorker = newPeriodicWorker("alert_scheduler", cfg.Interval, func(ctx context.Context) {
		if _, err := s.Tick(ctx); err != nil {
			s.log.Warn("⚠️  alert tick failed", "error", err)
		}
	}, s.log)
	return s
}

func (s *alertScheduler) Tick(ctx context.Context) (int, error) {
	now := s.clock.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	var fired int32
	after := uuid.Nil
	var loadErr error

pages:
	for {
		batch, err := s.searchRepo.FindDueForAlert(gctx, now, after, s.batchSize)
		if err != nil {
			loadErr = err
			break
		}

		for _, search := range batch {
			if gctx.Err() != nil {
				break pages
			}
			// The query is a coarse filter; the frequency table decides.
			if !models.IsNotificationDue(search.AlertConfig(), now) {
				continue
			}
			search := search
			g.Go(func() error {
				if s.dispatch(gctx, search, now) {
					atomic.AddInt32(&fired, 1)
				}
				return nil
			})
		}

		if len(batch) < s.batchSize {
			break
		}
		after = batch[len(batch)-1].ID
	}

	_ = g.Wait()

	n := int(atomic.LoadInt32(&fired))
	if n > 0 {
		s.log.Info("📋 alerts dispatched", "count", n)
	}
	if loadErr != nil {
		return n, loadErr
	}
	return n, ctx.Err()
}

// dispatch notifies and then records the send. A failed notification leaves
// last_notified_at untouched so the next tick retries it.
func (s *alertScheduler) dispatch(ctx context.Context, search models.SavedSearch, now time.Time) bool {
	if err := s.notifier.Notify(ctx, search); err != nil {
		s.log.Warn("⚠️  failed to notify saved search", "saved_search_id", search.ID, "error", err)
		return false
	}
	if err := s.searchRepo.MarkNotified(ctx, search.ID, now); err != nil {
		s.log.Error("❌ failed to record notification", "saved_search_id", search.ID, "error", err)
		return false
	}
	return true
}
