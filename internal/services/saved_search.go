package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jobboard/recommendation-service/internal/models"
	"jobboard/recommendation-service/internal/pkg/clock"
	"jobboard/recommendation-service/internal/pkg/logger"
	"jobboard/recommendation-service/internal/repositories"
)

type SavedSearchService interface {
	Create(ctx context.Context, in models.SavedSearchInput) (*models.SavedSearch, error)
	Get(ctx context.Context, id uuid.UUID) (*models.SavedSearch, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SavedSearch, error)
	UpdateAlerts(ctx context.Context, id uuid.UUID, enable *bool, frequency *string) (*models.SavedSearch, error)
	AlertStatus(ctx context.Context, id uuid.UUID) (*AlertStatus, error)
}

type AlertStatus struct {
	Search         *models.SavedSearch
	IsDue          bool
	NextEligibleAt *time.Time
}

type savedSearchService struct {
	repo  repositories.SavedSearchRepository
	clock clock.Clock
	log   *logger.Logger
}

func NewSavedSearchService(repo repositories.SavedSearchRepository, clk clock.Clock, log *logger.Logger) SavedSearchService {
	return &savedSearchService{
		repo:  repo,
		clock: clk,
		log:   log.Named("saved_searches"),
	}
}

func (s *savedSearchService) Create(ctx context.Context, in models.SavedSearchInput) (*models.SavedSearch, error) {
	search, err := models.NewSavedSearch(in, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, search); err != nil {
		return nil, err
	}
	s.log.Debug("saved search created", "id", search.ID, "user_id", search.UserID, "frequency", search.NotificationFrequency)
	return search, nil
}

func (s *savedSearchService) Get(ctx context.Context, id uuid.UUID) (*models.SavedSearch, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *savedSearchService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SavedSearch, error) {
	return s.repo.FindByUser(ctx, userID)
}

func (s *savedSearchService) UpdateAlerts(ctx context.Context, id uuid.UUID, enable *bool, frequency *string) (*models.SavedSearch, error) {
	data := &repositories.AlertUpdateData{
		EnableAlerts: enable,
		UpdatedAt:    s.clock.Now(),
	}
	if frequency != nil {
		f, err := models.ParseNotificationFrequency(*frequency)
		if err != nil {
			return nil, err
		}
		data.NotificationFrequency = &f
	}

	if err := s.repo.UpdateAlerts(ctx, id, data); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *savedSearchService) AlertStatus(ctx context.Context, id uuid.UUID) (*AlertStatus, error) {
	search, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	cfg := search.AlertConfig()
	status := &AlertStatus{
		Search: search,
		IsDue:  models.IsNotificationDue(cfg, now),
	}
	if next, ok := models.NextNotificationAt(cfg); ok && !next.IsZero() {
		status.NextEligibleAt = &next
	}
	return status, nil
}
