package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-billing/internal/models"
	"github.com/noah-isme/lms-billing/internal/service"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
	"github.com/noah-isme/lms-billing/pkg/response"
)

type ledgerReportService interface {
	TeacherEarnings(ctx context.Context, teacherID string, year int) ([]models.TeacherEarningPeriod, bool, error)
	CompanySpend(ctx context.Context, companyID string, year int) ([]models.CompanySpendPeriod, bool, error)
	RenderTeacherEarnings(ctx context.Context, teacherID string, year int, format models.ReportFormat) (*service.RenderedReport, error)
	RenderCompanySpend(ctx context.Context, companyID string, year int, format models.ReportFormat) (*service.RenderedReport, error)
}

// ReportHandler exposes ledger reports.
type ReportHandler struct {
	reports ledgerReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports ledgerReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// TeacherEarnings godoc
// @Summary Teacher earnings by half month
// @Tags Reports
// @Produce json,text/csv,application/pdf
// @Param id path string true "Teacher ID"
// @Param year query int false "Year, defaults to the current one"
// @Param format query string false "json, csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /reports/teachers/{id}/earnings [get]
func (h *ReportHandler) TeacherEarnings(c *gin.Context) {
	year, format, ok := reportParams(c)
	if !ok {
		return
	}
	ctx, id := c.Request.Context(), c.Param("id")
	if format != models.ReportFormatJSON {
		report, err := h.reports.RenderTeacherEarnings(ctx, id, year, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, report.Filename, report.ContentType, report.Body)
		return
	}
	periods, cached, err := h.reports.TeacherEarnings(ctx, id, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, map[string]interface{}{"cached": cached})
}

// CompanySpend godoc
// @Summary Company lesson spend by month
// @Tags Reports
// @Produce json,text/csv,application/pdf
// @Param id path string true "Company ID"
// @Param year query int false "Year, defaults to the current one"
// @Param format query string false "json, csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /reports/companies/{id}/spend [get]
func (h *ReportHandler) CompanySpend(c *gin.Context) {
	year, format, ok := reportParams(c)
	if !ok {
		return
	}
	ctx, id := c.Request.Context(), c.Param("id")
	if format != models.ReportFormatJSON {
		report, err := h.reports.RenderCompanySpend(ctx, id, year, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, report.Filename, report.ContentType, report.Body)
		return
	}
	periods, cached, err := h.reports.CompanySpend(ctx, id, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, map[string]interface{}{"cached": cached})
}

func reportParams(c *gin.Context) (int, models.ReportFormat, bool) {
	year, err := queryInt(c, "year", 0)
	if err != nil {
		response.Error(c, err)
		return 0, "", false
	}
	format, ok := models.ParseReportFormat(c.Query("format"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, csv or pdf"))
		return 0, "", false
	}
	return year, format, true
}
