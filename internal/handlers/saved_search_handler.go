package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"jobboard/recommendation-service/internal/models"
	"jobboard/recommendation-service/internal/pkg/logger"
	"jobboard/recommendation-service/internal/services"
)

type SavedSearchHandler struct {
	service services.SavedSearchService
	log     *logger.Logger
}

func NewSavedSearchHandler(service services.SavedSearchService, log *logger.Logger) *SavedSearchHandler {
	return &SavedSearchHandler{
		service: service,
		log:     log,
	}
}

// HandleCreate handles POST /saved-searches
func (h *SavedSearchHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.CreateSavedSearchRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	search, err := h.service.Create(c.UserContext(), models.SavedSearchInput{
		UserID:                uuid.MustParse(req.UserID),
		Name:                  req.Name,
		Keywords:              req.Keywords,
		Filters:               req.Filters,
		Color:                 req.Color,
		EnableAlerts:          req.EnableAlerts,
		NotificationFrequency: req.NotificationFrequency,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(search)
}

// HandleGet handles GET /saved-searches/:id
func (h *SavedSearchHandler) HandleGet(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	search, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(search)
}

// HandleListByUser handles GET /users/:userId/saved-searches
func (h *SavedSearchHandler) HandleListByUser(c *fiber.Ctx) error {
	userID, err := parseUUIDParam(c, "userId")
	if err != nil {
		return respondError(c, h.log, err)
	}

	searches, err := h.service.ListByUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"user_id": userID.String(),
		"count":   len(searches),
		"items":   searches,
	})
}

// HandleUpdateAlerts handles PATCH /saved-searches/:id/alerts
func (h *SavedSearchHandler) HandleUpdateAlerts(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req models.UpdateAlertsRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	search, err := h.service.UpdateAlerts(c.UserContext(), id, req.EnableAlerts, req.NotificationFrequency)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(search)
}

// HandleAlertStatus handles GET /saved-searches/:id/alert-status
func (h *SavedSearchHandler) HandleAlertStatus(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	status, err := h.service.AlertStatus(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(models.AlertStatusResponse{
		ID:                    status.Search.ID.String(),
		EnableAlerts:          status.Search.EnableAlerts,
		NotificationFrequency: string(status.Search.NotificationFrequency),
		LastNotifiedAt:        status.Search.LastNotifiedAt,
		IsDue:                 status.IsDue,
		NextEligibleAt:        status.NextEligibleAt,
	})
}
