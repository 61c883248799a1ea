package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/models"
	"gorm.io/gorm"
)

const (
	RecentActivityLimit = 10
	PreviewLength       = 100
	DailyWindowDays     = 30
)

// AnalyticsService computes dashboard aggregates over the reports table.
// Nothing is cached; every call reads the current rows.
type AnalyticsService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewAnalyticsService(db *gorm.DB, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsService{db: db, loc: loc, now: time.Now}
}

type statusCount struct {
	Status models.ReportStatus
	Count  int64
}

func (s *AnalyticsService) Dashboard(ctx context.Context) (*dto.AnalyticsResponse, error) {
	now := s.now()
	db := s.db.WithContext(ctx)
	resp := &dto.AnalyticsResponse{
		StatusStats: emptyStatusStats(),
		LastUpdated: now.UTC().Format(time.RFC3339Nano),
	}

	if err := db.Model(&models.Report{}).Count(&resp.TotalReports).Error; err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	monthStart := MonthStart(now, s.loc).UnixMilli()
	if err := db.Model(&models.Report{}).Where("timestamp >= ?", monthStart).Count(&resp.ReportsThisMonth).Error; err != nil {
		return nil, fmt.Errorf("failed to count monthly reports: %w", err)
	}

	if err := db.Model(&models.Report{}).Where("is_anonymous = ?", true).Count(&resp.AnonymousReports).Error; err != nil {
		return nil, fmt.Errorf("failed to count anonymous reports: %w", err)
	}

	if err := db.Model(&models.Report{}).Where("ipfs_cid IS NOT NULL AND ipfs_cid <> ''").Count(&resp.ReportsWithEvidence).Error; err != nil {
		return nil, fmt.Errorf("failed to count reports with evidence: %w", err)
	}

	var recent []models.Report
	if err := db.Order("timestamp DESC").Limit(RecentActivityLimit).Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent activity: %w", err)
	}
	resp.RecentActivity = make([]dto.RecentActivity, 0, len(recent))
	for _, r := range recent {
		resp.RecentActivity = append(resp.RecentActivity, dto.RecentActivity{
			ID:          r.ID,
			Message:     PreviewMessage(r.Message),
			Timestamp:   r.Timestamp,
			IsAnonymous: r.IsAnonymous,
			Status:      r.Status,
			CreatedAt:   r.CreatedAt,
		})
	}

	var counts []statusCount
	if err := db.Model(&models.Report{}).Select("status, COUNT(*) AS count").Group("status").Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}
	for _, c := range counts {
		resp.StatusStats[string(c.Status)] = c.Count
	}

	since := now.Add(-DailyWindowDays * 24 * time.Hour).UnixMilli()
	var stamps []int64
	if err := db.Model(&models.Report{}).Where("timestamp >= ?", since).Pluck("timestamp", &stamps).Error; err != nil {
		return nil, fmt.Errorf("failed to load daily stats: %w", err)
	}
	resp.DailyStats = DailyCounts(stamps)

	return resp, nil
}

func (s *AnalyticsService) Summary(ctx context.Context) (*dto.AnalyticsSummary, error) {
	db := s.db.WithContext(ctx)
	sum := &dto.AnalyticsSummary{}

	if err := db.Model(&models.Report{}).Count(&sum.TotalReports).Error; err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	if err := db.Model(&models.Report{}).Where("status = ?", models.StatusConfirmed).Count(&sum.ConfirmedReports).Error; err != nil {
		return nil, fmt.Errorf("failed to count confirmed reports: %w", err)
	}
	if err := db.Model(&models.Report{}).Where("is_anonymous = ?", true).Count(&sum.AnonymousReports).Error; err != nil {
		return nil, fmt.Errorf("failed to count anonymous reports: %w", err)
	}

	sum.SuccessRate = SuccessRate(sum.ConfirmedReports, sum.TotalReports)
	return sum, nil
}

func emptyStatusStats() map[string]int64 {
	stats := make(map[string]int64, len(models.ReportStatuses))
	for _, st := range models.ReportStatuses {
		stats[string(st)] = 0
	}
	return stats
}

// PreviewMessage truncates a message to PreviewLength runes plus "...".
func PreviewMessage(msg string) string {
	runes := []rune(msg)
	if len(runes) <= PreviewLength {
		return msg
	}
	return string(runes[:PreviewLength]) + "..."
}

// DailyCounts groups epoch-millisecond timestamps by UTC calendar date,
// newest date first.
func DailyCounts(stamps []int64) []dto.DailyCount {
	byDate := make(map[string]int64)
	for _, ts := range stamps {
		byDate[time.UnixMilli(ts).UTC().Format("2006-01-02")]++
	}

	out := make([]dto.DailyCount, 0, len(byDate))
	for date, n := range byDate {
		out = append(out, dto.DailyCount{Date: date, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// SuccessRate is confirmed/total as a percentage with one decimal.
func SuccessRate(confirmed, total int64) string {
	if total == 0 {
		return "0.0"
	}
	return strconv.FormatFloat(float64(confirmed)*100/float64(total), 'f', 1, 64)
}

// MonthStart returns the first instant of now's calendar month in loc.
func MonthStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}
