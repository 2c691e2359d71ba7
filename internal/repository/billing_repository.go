package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/lms-billing/internal/models"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

const pqUniqueViolation = "23505"

// BillingQueries are the reads and writes of one billing unit of work. All
// calls share a single database transaction; Lock* methods take row locks
// held until it ends.
type BillingQueries interface {
	LockLesson(ctx context.Context, lessonID string) (*models.Lesson, error)
	LockLessonStudents(ctx context.Context, lessonID string) ([]models.Student, error)
	GetTeacher(ctx context.Context, teacherID string) (*models.Teacher, error)
	LockCompany(ctx context.Context, companyID string) (*models.Company, error)
	LockStudent(ctx context.Context, studentID string) (*models.Student, error)
	UpdateLessonBilling(ctx context.Context, lesson *models.Lesson) error
	InsertTransaction(ctx context.Context, txn *models.Transaction) error
	AdjustWallet(ctx context.Context, kind models.OwnerKind, ownerID string, delta decimal.Decimal) error
	ListLessonTransactions(ctx context.Context, lessonID string) ([]models.Transaction, error)
	DeleteTransaction(ctx context.Context, transactionID string) error
	GetTransactionType(ctx context.Context, typeID string) (*models.TransactionType, error)
}

// BillingRepository opens billing units of work.
type BillingRepository struct {
	db *sqlx.DB
}

// NewBillingRepository constructs the repository.
func NewBillingRepository(db *sqlx.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// WithinTx runs fn inside a database transaction, committing when fn returns
// nil and rolling back otherwise.
func (r *BillingRepository) WithinTx(ctx context.Context, fn func(BillingQueries) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin billing transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&billingTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit billing transaction: %w", err)
	}
	return nil
}

type billingTx struct {
	tx *sqlx.Tx
}

const lessonColumns = `id, teacher_id, scheduled_at, duration_minutes, status, theme, price, currency_id`

func (q *billingTx) LockLesson(ctx context.Context, lessonID string) (*models.Lesson, error) {
	const query = `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1 FOR UPDATE`
	var lesson models.Lesson
	if err := q.tx.GetContext(ctx, &lesson, query, lessonID); err != nil {
		return nil, fmt.Errorf("lock lesson %s: %w", lessonID, err)
	}
	return &lesson, nil
}

func (q *billingTx) LockLessonStudents(ctx context.Context, lessonID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.user_id, s.full_name, s.company_id, s.teacher_id, s.plan_id, s.wallet, s.created_at
FROM students s
JOIN lesson_students ls ON ls.student_id = s.id
WHERE ls.lesson_id = $1
ORDER BY s.id
FOR UPDATE OF s`
	var students []models.Student
	if err := q.tx.SelectContext(ctx, &students, query, lessonID); err != nil {
		return nil, fmt.Errorf("lock students of lesson %s: %w", lessonID, err)
	}
	return students, nil
}

func (q *billingTx) GetTeacher(ctx context.Context, teacherID string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, full_name, plan_id, created_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := q.tx.GetContext(ctx, &teacher, query, teacherID); err != nil {
		return nil, fmt.Errorf("get teacher %s: %w", teacherID, err)
	}
	return &teacher, nil
}

func (q *billingTx) LockCompany(ctx context.Context, companyID string) (*models.Company, error) {
	const query = `SELECT id, name, discount, is_active, plan_id, wallet FROM companies WHERE id = $1 FOR UPDATE`
	var company models.Company
	if err := q.tx.GetContext(ctx, &company, query, companyID); err != nil {
		return nil, fmt.Errorf("lock company %s: %w", companyID, err)
	}
	return &company, nil
}

func (q *billingTx) LockStudent(ctx context.Context, studentID string) (*models.Student, error) {
	const query = `SELECT id, user_id, full_name, company_id, teacher_id, plan_id, wallet, created_at
FROM students WHERE id = $1 FOR UPDATE`
	var student models.Student
	if err := q.tx.GetContext(ctx, &student, query, studentID); err != nil {
		return nil, fmt.Errorf("lock student %s: %w", studentID, err)
	}
	return &student, nil
}

func (q *billingTx) UpdateLessonBilling(ctx context.Context, lesson *models.Lesson) error {
	const query = `UPDATE lessons SET status = $1, price = $2, currency_id = $3 WHERE id = $4`
	result, err := q.tx.ExecContext(ctx, query, lesson.Status, lesson.Price, lesson.CurrencyID, lesson.ID)
	if err != nil {
		return fmt.Errorf("update lesson %s billing: %w", lesson.ID, err)
	}
	return expectRow(result, "lesson "+lesson.ID)
}

func (q *billingTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO transactions
	(id, owner_kind, owner_id, lesson_id, price, direction, transaction_type_id, description, created_at)
	VALUES (:id, :owner_kind, :owner_id, :lesson_id, :price, :direction, :transaction_type_id, :description, :created_at)`
	if _, err := q.tx.NamedExecContext(ctx, query, txn); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return appErrors.Wrapf(appErrors.ErrConflict, err,
				"%s %s already has a transaction for this lesson", txn.OwnerKind, txn.OwnerID)
		}
		return fmt.Errorf("insert %s transaction: %w", txn.OwnerKind, err)
	}
	return nil
}

func (q *billingTx) AdjustWallet(ctx context.Context, kind models.OwnerKind, ownerID string, delta decimal.Decimal) error {
	table, err := walletTable(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET wallet = wallet + $1 WHERE id = $2`, table)
	result, err := q.tx.ExecContext(ctx, query, delta, ownerID)
	if err != nil {
		return fmt.Errorf("adjust %s %s wallet: %w", kind, ownerID, err)
	}
	return expectRow(result, string(kind)+" "+ownerID)
}

func (q *billingTx) ListLessonTransactions(ctx context.Context, lessonID string) ([]models.Transaction, error) {
	const query = `SELECT id, owner_kind, owner_id, lesson_id, price, direction, transaction_type_id, description, created_at
FROM transactions WHERE lesson_id = $1 ORDER BY created_at, id FOR UPDATE`
	var txns []models.Transaction
	if err := q.tx.SelectContext(ctx, &txns, query, lessonID); err != nil {
		return nil, fmt.Errorf("list transactions of lesson %s: %w", lessonID, err)
	}
	return txns, nil
}

func (q *billingTx) DeleteTransaction(ctx context.Context, transactionID string) error {
	result, err := q.tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, transactionID)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", transactionID, err)
	}
	return expectRow(result, "transaction "+transactionID)
}

func (q *billingTx) GetTransactionType(ctx context.Context, typeID string) (*models.TransactionType, error) {
	const query = `SELECT id, title, description, direction, is_system FROM transaction_types WHERE id = $1`
	var txnType models.TransactionType
	if err := q.tx.GetContext(ctx, &txnType, query, typeID); err != nil {
		return nil, fmt.Errorf("get transaction type %s: %w", typeID, err)
	}
	return &txnType, nil
}

func walletTable(kind models.OwnerKind) (string, error) {
	switch kind {
	case models.OwnerStudent:
		return "students", nil
	case models.OwnerCompany:
		return "companies", nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s has no wallet", kind))
	}
}

func expectRow(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", what, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, sql.ErrNoRows)
	}
	return nil
}
