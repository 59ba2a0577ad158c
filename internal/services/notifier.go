package services

import (
	"context"

	"jobboard/recommendation-service/internal/models"
	"jobboard/recommendation-service/internal/pkg/logger"
)

// Notifier delivers a saved-search alert. Delivery itself lives outside this service.
type Notifier interface {
	Notify(ctx context.Context, search models.SavedSearch) error
}

type logNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log.Named("notifier")}
}

func (n *logNotifier) Notify(ctx context.Context, search models.SavedSearch) error {
	n.log.Info("📨 saved search alert",
		"saved_search_id", search.ID,
		"user_id", search.UserID,
		"name", search.Name,
		"frequency", search.NotificationFrequency,
	)
	return nil
}
