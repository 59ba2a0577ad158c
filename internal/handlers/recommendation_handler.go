package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"jobboard/recommendation-service/internal/models"
	"jobboard/recommendation-service/internal/pkg/clock"
	"jobboard/recommendation-service/internal/pkg/logger"
	"jobboard/recommendation-service/internal/services"
)

type RecommendationHandler struct {
	service services.RecommendationService
	clock   clock.Clock
	log     *logger.Logger
}

func NewRecommendationHandler(
	service services.RecommendationService,
	clk clock.Clock,
	log *logger.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
		clock:   clk,
		log:     log,
	}
}

// HandleCreate handles POST /recommendations
func (h *RecommendationHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.CreateRecommendationRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	rec, err := h.service.Create(c.UserContext(), toRecommendationInput(req))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.NewRecommendationResponse(rec, h.clock.Now()))
}

// HandleGet handles GET /recommendations/:id
func (h *RecommendationHandler) HandleGet(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	rec, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.NewRecommendationResponse(rec, h.clock.Now()))
}

// HandleListActive handles GET /requesters/:requesterId/recommendations
func (h *RecommendationHandler) HandleListActive(c *fiber.Ctx) error {
	requesterID, err := parseUUIDParam(c, "requesterId")
	if err != nil {
		return respondError(c, h.log, err)
	}

	recs, err := h.service.ListActive(c.UserContext(), requesterID, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}

	now := h.clock.Now()
	items := make([]models.RecommendationResponse, 0, len(recs))
	for i := range recs {
		items = append(items, models.NewRecommendationResponse(&recs[i], now))
	}

	return c.JSON(models.RecommendationListResponse{
		RequesterID: requesterID.String(),
		Count:       len(items),
		Items:       items,
	})
}

// HandleView handles POST /recommendations/:id/view
func (h *RecommendationHandler) HandleView(c *fiber.Ctx) error {
	return h.transition(c, h.service.MarkViewed)
}

// HandleClick handles POST /recommendations/:id/click
func (h *RecommendationHandler) HandleClick(c *fiber.Ctx) error {
	return h.transition(c, h.service.MarkClicked)
}

// HandleDeactivate handles POST /recommendations/:id/deactivate
func (h *RecommendationHandler) HandleDeactivate(c *fiber.Ctx) error {
	return h.transition(c, h.service.Deactivate)
}

// HandleFeedback handles POST /recommendations/:id/feedback
func (h *RecommendationHandler) HandleFeedback(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req models.FeedbackRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	rec, err := h.service.SubmitFeedback(c.UserContext(), id, models.FeedbackInput{
		Rating:    req.Rating,
		IsHelpful: req.IsHelpful,
		Text:      req.FeedbackText,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.NewRecommendationResponse(rec, h.clock.Now()))
}

func (h *RecommendationHandler) transition(
	c *fiber.Ctx,
	apply func(ctx context.Context, id uuid.UUID) (*models.Recommendation, error),
) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	rec, err := apply(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.NewRecommendationResponse(rec, h.clock.Now()))
}

func toRecommendationInput(req models.CreateRecommendationRequest) models.RecommendationInput {
	in := models.RecommendationInput{
		RequesterRole:         models.RequesterRole(req.RequesterRole),
		RecommendationKind:    models.RecommendationKind(req.RecommendationKind),
		RecommendedEntityType: models.EntityType(req.RecommendedEntityType),
		Score:                 req.Score,
		Confidence:            req.Confidence,
		AlgorithmVersion:      req.AlgorithmVersion,
		ExpiresAt:             req.ExpiresAt,
	}

	// Tags already guarantee these parse.
	in.RequesterID = uuid.MustParse(req.RequesterID)
	in.RecommendedEntityID = uuid.MustParse(req.RecommendedEntityID)
	if req.ContextJobID != nil && *req.ContextJobID != "" {
		id := uuid.MustParse(*req.ContextJobID)
		in.ContextJobID = &id
	}

	for _, r := range req.Reasons {
		in.Reasons = append(in.Reasons, models.RecommendationReason{
			Factor:      models.Factor(r.Factor),
			Weight:      r.Weight,
			Score:       r.Score,
			Description: r.Description,
		})
	}

	if req.UserFeedback != nil {
		in.UserFeedback = &models.FeedbackInput{
			Rating:    req.UserFeedback.Rating,
			IsHelpful: req.UserFeedback.IsHelpful,
			Text:      req.UserFeedback.FeedbackText,
		}
	}
	return in
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, &models.ValidationError{Field: name, Reason: "must be a valid UUID"}
	}
	return id, nil
}
