package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports whether the report store answers. A failed ping
// turns the response into 503 "degraded" so load balancers stop routing to it.
type HealthHandler struct {
	ping func() error
	now  func() time.Time
}

func NewHealthHandler(ping func() error) *HealthHandler {
	return &HealthHandler{ping: ping, now: time.Now}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	start := h.now()
	err := h.ping()
	latency := h.now().Sub(start).Milliseconds()

	resp := dto.HealthResponse{
		Status:      "ok",
		Timestamp:   h.now().UTC().Format(time.RFC3339),
		DB:          "ok",
		DBLatencyMs: latency,
	}
	if err == nil {
		return c.JSON(resp)
	}

	resp.Status = "degraded"
	resp.DB = "unhealthy"
	resp.DBError = pingErrorClass(err)
	slog.Warn("health check: database ping failed",
		"request_id", requestID(c),
		"latency_ms", latency,
		"class", resp.DBError,
		"error", err.Error(),
	)
	return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
}

// pingErrorClass buckets a ping failure without exposing driver messages.
func pingErrorClass(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "unreachable"
	}
	return "error"
}
