package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-billing/internal/models"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
	"github.com/noah-isme/lms-billing/pkg/export"
)

type ledgerReportRepository interface {
	TeacherEarnings(ctx context.Context, teacherID string, year int) ([]models.TeacherEarningPeriod, error)
	CompanySpend(ctx context.Context, companyID string, year int) ([]models.CompanySpendPeriod, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// RenderedReport is a report encoded for download.
type RenderedReport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ReportService serves teacher earnings and company spend built from the
// ledger, cached per owner and year.
type ReportService struct {
	repo   ledgerReportRepository
	cache  *CacheService
	ttl    time.Duration
	csv    csvRenderer
	pdf    pdfRenderer
	now    func() time.Time
	logger *zap.Logger
}

// NewReportService constructs the service. Nil renderers get the defaults.
func NewReportService(repo ledgerReportRepository, cache *CacheService, ttl time.Duration, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{repo: repo, cache: cache, ttl: ttl, csv: csv, pdf: pdf, now: time.Now, logger: logger}
}

// TeacherEarnings returns half-month earnings for year; year 0 means the
// current year. The boolean reports a cache hit.
func (s *ReportService) TeacherEarnings(ctx context.Context, teacherID string, year int) ([]models.TeacherEarningPeriod, bool, error) {
	year, err := s.resolveYear(year)
	if err != nil {
		return nil, false, err
	}
	key := reportCacheKey(models.OwnerTeacher, teacherID, year)
	var cached []models.TeacherEarningPeriod
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	periods, err := s.repo.TeacherEarnings(ctx, teacherID, year)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher earnings")
	}
	if periods == nil {
		periods = []models.TeacherEarningPeriod{}
	}
	s.cache.Set(ctx, key, periods, s.ttl)
	return periods, false, nil
}

// CompanySpend returns monthly lesson spend for year; year 0 means the current year.
func (s *ReportService) CompanySpend(ctx context.Context, companyID string, year int) ([]models.CompanySpendPeriod, bool, error) {
	year, err := s.resolveYear(year)
	if err != nil {
		return nil, false, err
	}
	key := reportCacheKey(models.OwnerCompany, companyID, year)
	var cached []models.CompanySpendPeriod
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	periods, err := s.repo.CompanySpend(ctx, companyID, year)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company spend")
	}
	if periods == nil {
		periods = []models.CompanySpendPeriod{}
	}
	s.cache.Set(ctx, key, periods, s.ttl)
	return periods, false, nil
}

// RenderTeacherEarnings encodes the earnings report as CSV or PDF.
func (s *ReportService) RenderTeacherEarnings(ctx context.Context, teacherID string, year int, format models.ReportFormat) (*RenderedReport, error) {
	periods, _, err := s.TeacherEarnings(ctx, teacherID, year)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{Headers: []string{"month", "half", "total"}, Numeric: []string{"half", "total"}}
	total := decimal.Zero
	for _, p := range periods {
		data.Rows = append(data.Rows, map[string]string{
			"month": p.Month.Format("2006-01"),
			"half":  strconv.Itoa(p.HalfMonth),
			"total": p.TotalPrice.StringFixed(2),
		})
		total = total.Add(p.TotalPrice)
	}
	data.Footer = map[string]string{"month": "total", "total": total.StringFixed(2)}
	title := fmt.Sprintf("Teacher %s earnings", teacherID)
	return s.render(data, title, fmt.Sprintf("teacher-%s-earnings", teacherID), format)
}

// RenderCompanySpend encodes the spend report as CSV or PDF.
func (s *ReportService) RenderCompanySpend(ctx context.Context, companyID string, year int, format models.ReportFormat) (*RenderedReport, error) {
	periods, _, err := s.CompanySpend(ctx, companyID, year)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{Headers: []string{"month", "lessons", "total"}, Numeric: []string{"lessons", "total"}}
	total, lessons := decimal.Zero, 0
	for _, p := range periods {
		data.Rows = append(data.Rows, map[string]string{
			"month":   p.Month.Format("2006-01"),
			"lessons": strconv.Itoa(p.Lessons),
			"total":   p.TotalPrice.StringFixed(2),
		})
		total = total.Add(p.TotalPrice)
		lessons += p.Lessons
	}
	data.Footer = map[string]string{"month": "total", "lessons": strconv.Itoa(lessons), "total": total.StringFixed(2)}
	title := fmt.Sprintf("Company %s spend", companyID)
	return s.render(data, title, fmt.Sprintf("company-%s-spend", companyID), format)
}

func (s *ReportService) render(data export.Dataset, title, basename string, format models.ReportFormat) (*RenderedReport, error) {
	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case models.ReportFormatCSV:
		body, err = s.csv.Render(data)
		contentType = "text/csv"
	case models.ReportFormatPDF:
		body, err = s.pdf.Render(data, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return &RenderedReport{
		Filename:    fmt.Sprintf("%s.%s", basename, format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func (s *ReportService) resolveYear(year int) (int, error) {
	if year == 0 {
		return s.now().Year(), nil
	}
	if year < 2000 || year > 9999 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "year out of range")
	}
	return year, nil
}

func reportCacheKey(kind models.OwnerKind, ownerID string, year int) string {
	return fmt.Sprintf("report:%s:%s:%d", kind, ownerID, year)
}

func reportOwnerPattern(kind models.OwnerKind, ownerID string) string {
	return fmt.Sprintf("report:%s:%s:*", kind, ownerID)
}
