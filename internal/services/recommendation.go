package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobboard/recommendation-service/internal/models"
	"jobboard/recommendation-service/internal/pkg/clock"
	"jobboard/recommendation-service/internal/pkg/logger"
	"jobboard/recommendation-service/internal/repositories"
)

type RecommendationService interface {
	Create(ctx context.Context, in models.RecommendationInput) (*models.Recommendation, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
	ListActive(ctx context.Context, requesterID uuid.UUID, limit int) ([]models.Recommendation, error)
	MarkViewed(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
	MarkClicked(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
	SubmitFeedback(ctx context.Context, id uuid.UUID, in models.FeedbackInput) (*models.Recommendation, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type ListLimits struct {
	Default int
	Max     int
}

type recommendationService struct {
	repo   repositories.RecommendationRepository
	clock  clock.Clock
	limits ListLimits
	log    *logger.Logger
}

func NewRecommendationService(
	repo repositories.RecommendationRepository,
	clk clock.Clock,
	limits ListLimits,
	log *logger.Logger,
) RecommendationService {
	if limits.Default <= 0 {
		limits.Default = 20
	}
	if limits.Max < limits.Default {
		limits.Max = limits.Default
	}
	return &recommendationService{
		repo:   repo,
		clock:  clk,
		limits: limits,
		log:    log.Named("recommendations"),
	}
}

func (s *recommendationService) Create(ctx context.Context, in models.RecommendationInput) (*models.Recommendation, error) {
	rec, err := models.NewRecommendation(in, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.log.Debug("recommendation created",
		"id", rec.ID,
		"requester_id", rec.RequesterID,
		"kind", rec.RecommendationKind,
		"score", rec.Score,
		"expires_at", rec.ExpiresAt,
	)
	return rec, nil
}

func (s *recommendationService) Get(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *recommendationService) ListActive(ctx context.Context, requesterID uuid.UUID, limit int) ([]models.Recommendation, error) {
	if limit <= 0 {
		limit = s.limits.Default
	}
	if limit > s.limits.Max {
		limit = s.limits.Max
	}
	return s.repo.ListActive(ctx, requesterID, s.clock.Now(), limit)
}

func (s *recommendationService) MarkViewed(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	return s.latch(ctx, id, "viewed", s.repo.MarkViewed, (*models.Recommendation).MarkViewed)
}

func (s *recommendationService) MarkClicked(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	return s.latch(ctx, id, "clicked", s.repo.MarkClicked, (*models.Recommendation).MarkClicked)
}

type latchFunc func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

// latch is first-write-wins: a repeat or losing concurrent call leaves the stored
// timestamp alone and just returns the current record.
func (s *recommendationService) latch(
	ctx context.Context,
	id uuid.UUID,
	event string,
	set latchFunc,
	apply func(*models.Recommendation, time.Time) bool,
) (*models.Recommendation, error) {
	now := s.clock.Now()
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rec.CheckInteractive(now); err != nil {
		return nil, err
	}

	changed, err := set(ctx, id, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Either already latched, or deactivated/expired since the read above.
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := current.CheckInteractive(now); err != nil {
			return nil, err
		}
		return current, nil
	}

	apply(rec, now)
	s.log.Debug("recommendation "+event, "id", id)
	return rec, nil
}

func (s *recommendationService) SubmitFeedback(ctx context.Context, id uuid.UUID, in models.FeedbackInput) (*models.Recommendation, error) {
	now := s.clock.Now()
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rec.CheckInteractive(now); err != nil {
		return nil, err
	}
	if err := rec.SubmitFeedback(in, now); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateFeedback(ctx, id, rec.UserFeedback, now); err != nil {
		return nil, err
	}
	s.log.Debug("recommendation feedback stored", "id", id, "rating", in.Rating)
	return rec, nil
}

func (s *recommendationService) Deactivate(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	now := s.clock.Now()
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.IsActive {
		return rec, nil
	}
	if err := s.repo.Deactivate(ctx, id, now); err != nil {
		return nil, err
	}
	rec.Deactivate(now)
	s.log.Info("recommendation deactivated", "id", id)
	return rec, nil
}

func (s *recommendationService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("purge expired recommendations: %w", err)
	}
	return n, nil
}
