package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobboard/recommendation-service/internal/models"
)

type RecommendationRepository interface {
	Create(ctx context.Context, rec *models.Recommendation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
	ListActive(ctx context.Context, requesterID uuid.UUID, now time.Time, limit int) ([]models.Recommendation, error)
	MarkViewed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkClicked(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	UpdateFeedback(ctx context.Context, id uuid.UUID, feedback models.UserFeedback, at time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type recommendationRepository struct {
	db *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

func (r *recommendationRepository) Create(ctx context.Context, rec *models.Recommendation) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create recommendation: %w", err)
	}
	return nil
}

func (r *recommendationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	var rec models.Recommendation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrRecommendationNotFound
		}
		return nil, fmt.Errorf("failed to find recommendation: %w", err)
	}
	return &rec, nil
}

// ListActive returns the requester's active, unexpired recommendations, best first.
func (r *recommendationRepository) ListActive(ctx context.Context, requesterID uuid.UUID, now time.Time, limit int) ([]models.Recommendation, error) {
	var recs []models.Recommendation
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND is_active = ? AND expires_at > ?", requesterID, true, now.UTC()).
		Order("score DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return recs, nil
}

// MarkViewed sets the view latch only if it is still unset and the record still takes
// interaction at at, so concurrent callers cannot overwrite the first timestamp.
func (r *recommendationRepository) MarkViewed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.latch(ctx, id, "is_viewed", "viewed_at", at)
}

func (r *recommendationRepository) MarkClicked(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.latch(ctx, id, "is_clicked", "clicked_at", at)
}

func (r *recommendationRepository) latch(ctx context.Context, id uuid.UUID, flag, stamp string, at time.Time) (bool, error) {
	at = at.UTC()
	result := r.db.WithContext(ctx).Model(&models.Recommendation{}).
		Where("id = ? AND "+flag+" = ? AND is_active = ? AND expires_at > ?", id, false, true, at).
		Updates(map[string]interface{}{
			flag:         true,
			stamp:        at,
			"updated_at": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update %s: %w", flag, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *recommendationRepository) UpdateFeedback(ctx context.Context, id uuid.UUID, feedback models.UserFeedback, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Recommendation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"feedback_rating":     feedback.Rating,
			"feedback_is_helpful": feedback.IsHelpful,
			"feedback_text":       feedback.Text,
			"feedback_date":       utcPtr(feedback.Date),
			"updated_at":          at.UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update feedback: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrRecommendationNotFound
	}
	return nil
}

func (r *recommendationRepository) Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Recommendation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": at.UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate recommendation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrRecommendationNotFound
	}
	return nil
}

// DeleteExpired removes every record whose deadline is at or before now.
func (r *recommendationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&models.Recommendation{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired recommendations: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
