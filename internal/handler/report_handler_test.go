package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-billing/internal/models"
	"github.com/noah-isme/lms-billing/internal/service"
)

type reportServiceMock struct {
	year   int
	format models.ReportFormat
}

func (m *reportServiceMock) TeacherEarnings(ctx context.Context, teacherID string, year int) ([]models.TeacherEarningPeriod, bool, error) {
	m.year = year
	return []models.TeacherEarningPeriod{}, true, nil
}

func (m *reportServiceMock) CompanySpend(ctx context.Context, companyID string, year int) ([]models.CompanySpendPeriod, bool, error) {
	m.year = year
	return []models.CompanySpendPeriod{}, false, nil
}

func (m *reportServiceMock) RenderTeacherEarnings(ctx context.Context, teacherID string, year int, format models.ReportFormat) (*service.RenderedReport, error) {
	m.year, m.format = year, format
	return &service.RenderedReport{Filename: "teacher-" + teacherID + "-earnings.csv", ContentType: "text/csv", Body: []byte("month,half,total\n")}, nil
}

func (m *reportServiceMock) RenderCompanySpend(ctx context.Context, companyID string, year int, format models.ReportFormat) (*service.RenderedReport, error) {
	m.year, m.format = year, format
	return &service.RenderedReport{Filename: "company-" + companyID + "-spend.pdf", ContentType: "application/pdf", Body: []byte("%PDF-")}, nil
}

func TestReportHandlerTeacherEarningsJSON(t *testing.T) {
	mock := &reportServiceMock{}
	handler := NewReportHandler(mock)

	c, w := newGinContext(http.MethodGet, "/reports/teachers/t1/earnings?year=2024", nil)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	handler.TeacherEarnings(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2024, mock.year)
	assert.Equal(t, true, decodeEnvelope(t, w).Meta["cached"])
}

func TestReportHandlerTeacherEarningsCSV(t *testing.T) {
	mock := &reportServiceMock{}
	handler := NewReportHandler(mock)

	c, w := newGinContext(http.MethodGet, "/reports/teachers/t1/earnings?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	handler.TeacherEarnings(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ReportFormatCSV, mock.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "teacher-t1-earnings.csv")
}

func TestReportHandlerCompanySpendPDF(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{})

	c, w := newGinContext(http.MethodGet, "/reports/companies/acme/spend?format=pdf", nil)
	c.Params = gin.Params{{Key: "id", Value: "acme"}}
	handler.CompanySpend(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
}

func TestReportHandlerRejectsBadParams(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{})

	c, w := newGinContext(http.MethodGet, "/reports/companies/acme/spend?format=xlsx", nil)
	handler.CompanySpend(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/reports/companies/acme/spend?year=last", nil)
	handler.CompanySpend(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
