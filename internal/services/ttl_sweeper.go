package services

import (
	"context"
	"time"

	"jobboard/recommendation-service/internal/pkg/logger"
)

type TTLSweeper interface {
	Worker
	Sweep(ctx context.Context) (int64, error)
}

type ttlSweeper struct {
	*periodicWorker
	recommendations RecommendationService
	log             *logger.Logger
}

func NewTTLSweeper(recommendations RecommendationService, interval time.Duration, log *logger.Logger) TTLSweeper {
	s := &ttlSweeper{
		recommendations: recommendations,
		log:             log.Named("ttl_sweeper"),
	}
	s.periodicWorker = newPeriodicWorker("ttl_sweeper", interval, func(ctx context.Context) {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.Warn("⚠️  ttl sweep failed", "error", err)
		}
	}, s.log)
	return s
}

func (s *ttlSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.recommendations.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("🧹 expired recommendations removed", "count", n)
	}
	return n, nil
}
