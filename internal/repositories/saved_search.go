package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobboard/recommendation-service/internal/models"
)

type SavedSearchRepository interface {
	Create(ctx context.Context, search *models.SavedSearch) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SavedSearch, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.SavedSearch, error)
	UpdateAlerts(ctx context.Context, id uuid.UUID, update *AlertUpdateData) error
	FindDueForAlert(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]models.SavedSearch, error)
	MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error
}

type AlertUpdateData struct {
	EnableAlerts          *bool
	NotificationFrequency *models.NotificationFrequency
	UpdatedAt             time.Time
}

type savedSearchRepository struct {
	db *gorm.DB
}

func NewSavedSearchRepository(db *gorm.DB) SavedSearchRepository {
	return &savedSearchRepository{db: db}
}

func (r *savedSearchRepository) Create(ctx context.Context, search *models.SavedSearch) error {
	if err := r.db.WithContext(ctx).Create(search).Error; err != nil {
		return fmt.Errorf("failed to create saved search: %w", err)
	}
	return nil
}

func (r *savedSearchRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.SavedSearch, error) {
	var search models.SavedSearch
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&search).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrSavedSearchNotFound
		}
		return nil, fmt.Errorf("failed to find saved search: %w", err)
	}
	return &search, nil
}

func (r *savedSearchRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.SavedSearch, error) {
	var searches []models.SavedSearch
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&searches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find saved searches: %w", err)
	}
	return searches, nil
}

func (r *savedSearchRepository) UpdateAlerts(ctx context.Context, id uuid.UUID, data *AlertUpdateData) error {
	updates := map[string]interface{}{
		"updated_at": data.UpdatedAt.UTC(),
	}
	if data.EnableAlerts != nil {
		updates["enable_alerts"] = *data.EnableAlerts
	}
	if data.NotificationFrequency != nil {
		updates["notification_frequency"] = string(*data.NotificationFrequency)
	}

	result := r.db.WithContext(ctx).Model(&models.SavedSearch{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update alerts: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrSavedSearchNotFound
	}
	return nil
}

// FindDueForAlert pages through alert-enabled searches whose frequency window has
// elapsed, ordered by id. Pass uuid.Nil as after for the first page.
func (r *savedSearchRepository) FindDueForAlert(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]models.SavedSearch, error) {
	now = now.UTC()
	clauses := []string{"last_notified_at IS NULL"}
	args := []interface{}{}
	for _, f := range models.NotificationFrequencies() {
		threshold, _ := f.Threshold()
		clauses = append(clauses, "(notification_frequency = ? AND last_notified_at <= ?)")
		args = append(args, string(f), now.Add(-threshold))
	}

	query := r.db.WithContext(ctx).
		Where("enable_alerts = ?", true).
		Where("("+strings.Join(clauses, " OR ")+")", args...)
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}

	var searches []models.SavedSearch
	if err := query.Order("id ASC").Limit(limit).Find(&searches).Error; err != nil {
		return nil, fmt.Errorf("failed to find saved searches due for alert: %w", err)
	}
	return searches, nil
}

func (r *savedSearchRepository) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.SavedSearch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_notified_at": at.UTC(),
			"updated_at":       at.UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark saved search notified: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrSavedSearchNotFound
	}
	return nil
}
