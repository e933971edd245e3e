package handlers

import (
	"context"
	"time"

	"memory-test-service/internal/logger"
	"memory-test-service/internal/models"

	"github.com/gofiber/fiber/v3"
)

type ReportService interface {
	PatientReport(ctx context.Context, caller models.Caller, patientID string) (*models.Report, error)
	History(ctx context.Context, caller models.Caller, patientID string) ([]*models.ReportRecord, error)
	Overview(ctx context.Context, caller models.Caller) ([]models.PatientReportStatus, error)
}

type ReportHandler struct {
	base
	reportService ReportService
}

func NewReportHandler(reportService ReportService, timeout time.Duration, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		base:          base{timeout: timeout, log: log},
		reportService: reportService,
	}
}

func (h *ReportHandler) RegisterRoutes(api fiber.Router) {
	api.Get("/patients/:patientId/report", h.GenerateReport)
	api.Get("/patients/:patientId/reports", h.ReportHistory)
	api.Get("/reports/overview", h.Overview)
}

func (h *ReportHandler) GenerateReport(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	report, err := h.reportService.PatientReport(ctx, caller, c.Params("patientId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"data": report,
	})
}

func (h *ReportHandler) ReportHistory(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	records, err := h.reportService.History(ctx, caller, c.Params("patientId"))
	if err != nil {
		return h.fail(c, err)
	}
	if records == nil {
		records = []*models.ReportRecord{}
	}
	return c.JSON(fiber.Map{
		"data": records,
	})
}

func (h *ReportHandler) Overview(c fiber.Ctx) error {
	caller, ctx, cancel, err := h.begin(c)
	if err != nil {
		return h.fail(c, err)
	}
	defer cancel()

	statuses, err := h.reportService.Overview(ctx, caller)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"data": statuses,
	})
}
