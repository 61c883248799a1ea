package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/config"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	reportHandler *handlers.ReportHandler,
	analyticsHandler *handlers.AnalyticsHandler,
) {
	api := app.Group("/api")

	// Per-IP sliding window over the whole API
	api.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimitPerMin,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: true, Message: "Too many requests, please try again later",
			})
		},
	}))

	api.Get("/health", healthHandler.Check)

	// Reports
	api.Get("/reports", reportHandler.ListReports)
	api.Get("/reports/:id", reportHandler.GetReport)
	api.Post("/reports", reportHandler.CreateReport)
	api.Patch("/reports/:id/status", middleware.AdminRequired(cfg), reportHandler.UpdateStatus)
	api.Get("/search", reportHandler.Search)

	// Analytics
	api.Get("/analytics", analyticsHandler.Dashboard)
	api.Get("/analytics/summary", analyticsHandler.Summary)
}
