package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/models"
	"github.com/google/uuid"
)

type AnalyticsResponse struct {
	TotalReports        int64            `json:"totalReports"`
	ReportsThisMonth    int64            `json:"reportsThisMonth"`
	AnonymousReports    int64            `json:"anonymousReports"`
	ReportsWithEvidence int64            `json:"reportsWithEvidence"`
	RecentActivity      []RecentActivity `json:"recentActivity"`
	StatusStats         map[string]int64 `json:"statusStats"`
	DailyStats          []DailyCount     `json:"dailyStats"`
	LastUpdated         string           `json:"lastUpdated"`
}

// RecentActivity is a dashboard preview row; Message is truncated.
type RecentActivity struct {
	ID          uuid.UUID           `json:"id"`
	Message     string              `json:"message"`
	Timestamp   int64               `json:"timestamp"`
	IsAnonymous bool                `json:"isAnonymous"`
	Status      models.ReportStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type AnalyticsSummary struct {
	TotalReports     int64  `json:"totalReports"`
	ConfirmedReports int64  `json:"confirmedReports"`
	AnonymousReports int64  `json:"anonymousReports"`
	SuccessRate      string `json:"successRate"`
}
