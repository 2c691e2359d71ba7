package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-billing/internal/models"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

func TestAccountRepositoryWalletSnapshot(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students w WHERE w.id = $2")).
		WithArgs(models.OwnerStudent, "student-1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_kind", "owner_id", "wallet", "ledger_balance"}).
			AddRow("student", "student-1", "40.00", "50.00"))

	snapshot, err := repo.WalletSnapshot(context.Background(), models.OwnerStudent, "student-1")
	require.NoError(t, err)
	assert.Equal(t, "-10", snapshot.Drift().String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryDriftedWallets(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE wallet <> ledger_balance")).
		WithArgs(models.OwnerCompany).
		WillReturnRows(sqlmock.NewRows([]string{"owner_kind", "owner_id", "wallet", "ledger_balance"}).
			AddRow("company", "acme", "0", "-90.00"))

	snapshots, err := repo.DriftedWallets(context.Background(), models.OwnerCompany)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "90", snapshots[0].Drift().String())
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = repo.DriftedWallets(context.Background(), models.OwnerTeacher)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAccountRepositoryResetWalletFromLedger(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE companies w SET wallet =")).
		WithArgs(models.OwnerCompany, "acme").
		WillReturnRows(sqlmock.NewRows([]string{"wallet"}).AddRow("-90.00"))

	wallet, err := repo.ResetWalletFromLedger(context.Background(), models.OwnerCompany, "acme")
	require.NoError(t, err)
	assert.Equal(t, "-90", wallet.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryGetStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "full_name", "company_id", "teacher_id", "plan_id", "wallet", "created_at"}).
			AddRow("student-1", "user-1", "Ann Lee", nil, nil, "plan-1", "150.00", time.Now()))

	student, err := repo.GetStudent(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "plan-1", *student.PlanID)
	assert.Equal(t, "150", student.Wallet.String())
	require.NoError(t, mock.ExpectationsWereMet())
}
