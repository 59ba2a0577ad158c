package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"jobboard/recommendation-service/internal/models"
	"jobboard/recommendation-service/internal/pkg/logger"
)

type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// respondError maps service errors onto HTTP responses.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var inconsistent *models.InconsistentEntityTypeError
	fields := models.ValidationErrors(err)

	switch {
	case errors.As(err, &inconsistent):
		body := fiber.Map{
			"error": inconsistent.Error(),
			"field": "recommended_entity_type",
		}
		if len(fields) > 0 {
			body["fields"] = toFieldErrors(fields)
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	case len(fields) > 0:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"field":  fields[0].Field,
			"fields": toFieldErrors(fields),
		})
	case errors.Is(err, models.ErrRecommendationNotFound),
		errors.Is(err, models.ErrSavedSearchNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, models.ErrRecommendationExpired),
		errors.Is(err, models.ErrRecommendationInactive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		log.Error("❌ request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}

func toFieldErrors(errs []*models.ValidationError) []fieldError {
	out := make([]fieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, fieldError{Field: e.Field, Reason: e.Reason})
	}
	return out
}
