package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-billing/internal/models"
)

func TestReportRepositoryTeacherEarnings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner_kind = 'teacher' AND owner_id = $1")).
		WithArgs("teacher-1", 2024).
		WillReturnRows(sqlmock.NewRows([]string{"month", "half_month", "total_price"}).
			AddRow(march, 1, "120.00").
			AddRow(march, 2, "80.50"))

	periods, err := repo.TeacherEarnings(context.Background(), "teacher-1", 2024)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, 2, periods[1].HalfMonth)
	assert.Equal(t, "80.5", periods[1].TotalPrice.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCompanySpend(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner_kind = 'company' AND owner_id = $1")).
		WithArgs("acme", 2024).
		WillReturnRows(sqlmock.NewRows([]string{"month", "total_price", "lessons"}).
			AddRow(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), "450.00", 5))

	periods, err := repo.CompanySpend(context.Background(), "acme", 2024)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, 5, periods[0].Lessons)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryRecentPaymentsClampsLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.lesson_id IS NULL")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_kind", "owner_id", "lesson_id", "price", "direction", "transaction_type_id", "description", "created_at", "owner_name"}).
			AddRow("txn-9", "student", "student-1", nil, "50.00", "+", "topup", "", time.Now(), "Ann Lee"))

	records, err := repo.RecentPayments(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ann Lee", records[0].OwnerName)
	assert.Equal(t, models.OwnerStudent, records[0].OwnerKind)
	assert.Nil(t, records[0].LessonID)
	require.NoError(t, mock.ExpectationsWereMet())
}
