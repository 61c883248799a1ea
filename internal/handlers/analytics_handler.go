package handlers

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type AnalyticsProvider interface {
	Dashboard(ctx context.Context) (*dto.AnalyticsResponse, error)
	Summary(ctx context.Context) (*dto.AnalyticsSummary, error)
}

type AnalyticsHandler struct {
	analytics AnalyticsProvider
}

func NewAnalyticsHandler(analytics AnalyticsProvider) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	resp, err := h.analytics.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, err, "analytics", "Failed to fetch analytics")
	}
	return c.JSON(resp)
}

func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	resp, err := h.analytics.Summary(c.UserContext())
	if err != nil {
		return respondError(c, err, "analytics_summary", "Failed to fetch analytics summary")
	}
	return c.JSON(resp)
}
