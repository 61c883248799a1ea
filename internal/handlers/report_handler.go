package handlers

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/models"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ReportStore is the persistence surface the report routes need.
type ReportStore interface {
	Create(ctx context.Context, req *dto.CreateReportRequest) (*models.Report, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Report, error)
	List(ctx context.Context, params services.ListParams) ([]models.Report, error)
	Search(ctx context.Context, q string) ([]models.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Report, error)
}

type ReportHandler struct {
	reports ReportStore
}

func NewReportHandler(reports ReportStore) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) ListReports(c *fiber.Ctx) error {
	params := services.DefaultListParams()
	params.Status = c.Query("status")

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return validationFailed(c, "limit", "Limit must be between 1 and 100", v)
		}
		params.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return validationFailed(c, "offset", "Offset must be a non-negative integer", v)
		}
		params.Offset = n
	}

	reports, err := h.reports.List(c.UserContext(), params)
	if err != nil {
		return respondError(c, err, "list_reports", "Failed to fetch reports")
	}
	return c.JSON(dto.NewReportResponses(reports))
}

func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return validationFailed(c, "id", "Invalid report ID", c.Params("id"))
	}

	report, err := h.reports.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "get_report", "Failed to fetch report")
	}
	return c.JSON(dto.NewReportResponse(report))
}

func (h *ReportHandler) CreateReport(c *fiber.Ctx) error {
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c, err)
	}

	report, err := h.reports.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "create_report", "Failed to create report")
	}

	slog.Info("report stored",
		"request_id", requestID(c),
		"report_id", report.ID.String(),
		"tx_id", report.TxID,
		"anonymous", report.IsAnonymous,
	)
	return c.Status(fiber.StatusCreated).JSON(dto.NewReportResponse(report))
}

func (h *ReportHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return validationFailed(c, "id", "Invalid report ID", c.Params("id"))
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c, err)
	}

	report, err := h.reports.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return respondError(c, err, "update_status", "Failed to update report status")
	}

	slog.Info("report status updated", "request_id", requestID(c), "report_id", id.String(), "status", report.Status)
	return c.JSON(dto.NewReportResponse(report))
}

func (h *ReportHandler) Search(c *fiber.Ctx) error {
	reports, err := h.reports.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err, "search_reports", "Failed to search reports")
	}
	return c.JSON(dto.NewReportResponses(reports))
}
