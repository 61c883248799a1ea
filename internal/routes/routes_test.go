package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/config"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/models"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore answers every call with an empty result.
type stubStore struct{}

func (stubStore) Create(context.Context, *dto.CreateReportRequest) (*models.Report, error) {
	return &models.Report{ID: uuid.New()}, nil
}
func (stubStore) Get(_ context.Context, id uuid.UUID) (*models.Report, error) {
	return &models.Report{ID: id}, nil
}
func (stubStore) List(context.Context, services.ListParams) ([]models.Report, error) {
	return []models.Report{}, nil
}
func (stubStore) Search(context.Context, string) ([]models.Report, error) {
	return []models.Report{}, nil
}
func (stubStore) UpdateStatus(_ context.Context, id uuid.UUID, _ string) (*models.Report, error) {
	return &models.Report{ID: id}, nil
}

type stubAnalytics struct{}

func (stubAnalytics) Dashboard(context.Context) (*dto.AnalyticsResponse, error) {
	return &dto.AnalyticsResponse{}, nil
}
func (stubAnalytics) Summary(context.Context) (*dto.AnalyticsSummary, error) {
	return &dto.AnalyticsSummary{SuccessRate: "0.0"}, nil
}

func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	Setup(app, cfg,
		handlers.NewHealthHandler(func() error { return nil }),
		handlers.NewReportHandler(stubStore{}),
		handlers.NewAnalyticsHandler(stubAnalytics{}),
	)
	return app
}

func TestRoutesRegistered(t *testing.T) {
	app := newApp(&config.Config{RateLimitPerMin: 100})
	id := uuid.NewString()

	tests := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodGet, "/api/health", "", http.StatusOK},
		{http.MethodGet, "/api/reports", "", http.StatusOK},
		{http.MethodGet, "/api/reports/" + id, "", http.StatusOK},
		{http.MethodPost, "/api/reports", `{}`, http.StatusCreated},
		{http.MethodPatch, "/api/reports/" + id + "/status", `{"status":"failed"}`, http.StatusOK},
		{http.MethodGet, "/api/search?q=bus", "", http.StatusOK},
		{http.MethodGet, "/api/analytics", "", http.StatusOK},
		{http.MethodGet, "/api/analytics/summary", "", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, "%s %s", tt.method, tt.path)
	}
}

func TestStatusUpdateGuardedWhenConfigured(t *testing.T) {
	app := newApp(&config.Config{RateLimitPerMin: 100, JWTSecret: "secret"})

	req := httptest.NewRequest(http.MethodPatch, "/api/reports/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"failed"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	app := newApp(&config.Config{RateLimitPerMin: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
