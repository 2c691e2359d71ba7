package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-billing/internal/models"
)

// ReportRepository aggregates the transaction log for reporting.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// TeacherEarnings sums a teacher's lesson earnings per half month of year.
func (r *ReportRepository) TeacherEarnings(ctx context.Context, teacherID string, year int) ([]models.TeacherEarningPeriod, error) {
	const query = `SELECT date_trunc('month', created_at) AS month,
       CASE WHEN EXTRACT(DAY FROM created_at) <= 15 THEN 1 ELSE 2 END AS half_month,
       SUM(price) AS total_price
FROM transactions
WHERE owner_kind = 'teacher' AND owner_id = $1 AND lesson_id IS NOT NULL
  AND EXTRACT(YEAR FROM created_at) = $2
GROUP BY month, half_month
ORDER BY month, half_month`
	var periods []models.TeacherEarningPeriod
	if err := r.db.SelectContext(ctx, &periods, query, teacherID, year); err != nil {
		return nil, fmt.Errorf("teacher earnings: %w", err)
	}
	return periods, nil
}

// CompanySpend sums what a company paid for lessons per month of year.
func (r *ReportRepository) CompanySpend(ctx context.Context, companyID string, year int) ([]models.CompanySpendPeriod, error) {
	const query = `SELECT date_trunc('month', created_at) AS month,
       SUM(price) AS total_price,
       COUNT(*) AS lessons
FROM transactions
WHERE owner_kind = 'company' AND owner_id = $1 AND lesson_id IS NOT NULL
  AND EXTRACT(YEAR FROM created_at) = $2
GROUP BY month
ORDER BY month`
	var periods []models.CompanySpendPeriod
	if err := r.db.SelectContext(ctx, &periods, query, companyID, year); err != nil {
		return nil, fmt.Errorf("company spend: %w", err)
	}
	return periods, nil
}

// RecentPayments lists the latest manual student and company payments.
func (r *ReportRepository) RecentPayments(ctx context.Context, limit int) ([]models.PaymentRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	const query = `SELECT t.id, t.owner_kind, t.owner_id, t.lesson_id, t.price, t.direction,
       t.transaction_type_id, t.description, t.created_at,
       COALESCE(s.full_name, c.name, '') AS owner_name
FROM transactions t
LEFT JOIN students s ON t.owner_kind = 'student' AND s.id = t.owner_id
LEFT JOIN companies c ON t.owner_kind = 'company' AND c.id = t.owner_id
WHERE t.lesson_id IS NULL AND t.owner_kind IN ('student', 'company')
ORDER BY t.created_at DESC
LIMIT $1`
	var records []models.PaymentRecord
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("recent payments: %w", err)
	}
	return records, nil
}
