package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"jobboard/recommendation-service/internal/handlers"
)

type Handlers struct {
	Recommendations *handlers.RecommendationHandler
	SavedSearches   *handlers.SavedSearchHandler
}

type Options struct {
	AppName        string
	RequestLogging bool
}

func New(h Handlers, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      opts.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	if opts.RequestLogging {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	recs := api.Group("/recommendations")
	recs.Post("/", h.Recommendations.HandleCreate)
	recs.Get("/:id", h.Recommendations.HandleGet)
	recs.Post("/:id/view", h.Recommendations.HandleView)
	recs.Post("/:id/click", h.Recommendations.HandleClick)
	recs.Post("/:id/feedback", h.Recommendations.HandleFeedback)
	recs.Post("/:id/deactivate", h.Recommendations.HandleDeactivate)
	api.Get("/requesters/:requesterId/recommendations", h.Recommendations.HandleListActive)

	searches := api.Group("/saved-searches")
	searches.Post("/", h.SavedSearches.HandleCreate)
	searches.Get("/:id", h.SavedSearches.HandleGet)
	searches.Get("/:id/alert-status", h.SavedSearches.HandleAlertStatus)
	searches.Patch("/:id/alerts", h.SavedSearches.HandleUpdateAlerts)
	api.Get("/users/:userId/saved-searches", h.SavedSearches.HandleListByUser)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": opts.AppName,
			"version": "1.0.0",
		})
	})

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
