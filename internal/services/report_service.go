package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrDuplicateTxID  = errors.New("report with this transaction ID already exists")
)

const uniqueViolation = "23505"

// ReportService is the relational mirror of ledger-confirmed reports.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

func (s *ReportService) Create(ctx context.Context, req *dto.CreateReportRequest) (*models.Report, error) {
	in, err := validateCreate(req)
	if err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Report{}).Where("tx_id = ?", in.txID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check transaction id: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateTxID
	}

	report := models.Report{
		ID:             uuid.New(),
		Message:        in.message,
		TxID:           in.txID,
		Timestamp:      in.timestamp,
		IsAnonymous:    in.isAnonymous,
		PoliceRef:      in.policeRef,
		IPFSCid:        in.ipfsCid,
		IncidentDate:   in.incidentDate,
		Status:         in.status,
		AccountAddress: in.accountAddress,
	}

	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		// A concurrent insert of the same tx id loses on the unique index.
		if isUniqueViolation(err) {
			return nil, ErrDuplicateTxID
		}
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	return &report, nil
}

func (s *ReportService) List(ctx context.Context, params ListParams) ([]models.Report, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Report{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	reports := []models.Report{}
	if err := query.Order("timestamp DESC").Limit(params.Limit).Offset(params.Offset).Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// Search matches q case-insensitively against message and police reference.
func (s *ReportService) Search(ctx context.Context, q string) ([]models.Report, error) {
	if err := validateSearch(q); err != nil {
		return nil, err
	}

	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	reports := []models.Report{}
	err := s.db.WithContext(ctx).
		Where("LOWER(message) LIKE ? OR LOWER(police_ref) LIKE ?", pattern, pattern).
		Order("timestamp DESC").
		Limit(SearchLimit).
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search reports: %w", err)
	}
	return reports, nil
}

// UpdateStatus sets any valid status; transitions are not restricted.
func (s *ReportService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Report, error) {
	st, err := validateStatus(status)
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(st),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update report status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrReportNotFound
	}
	return s.Get(ctx, id)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
