package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-billing/internal/billing"
	"github.com/noah-isme/lms-billing/internal/models"
	"github.com/noah-isme/lms-billing/internal/repository"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

type billingStore interface {
	WithinTx(ctx context.Context, fn func(repository.BillingQueries) error) error
}

type billingCatalog interface {
	Currencies(ctx context.Context) ([]models.Currency, error)
	AttachPlans(ctx context.Context, owners ...PlanOwner) error
}

// LessonStatusChange requests a lesson status transition. TeacherID, when
// set, must match the lesson's teacher.
type LessonStatusChange struct {
	TeacherID string `json:"teacher_id"`
	LessonID  string `json:"lesson_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

// LessonBillingResult reports what a status change did.
type LessonBillingResult struct {
	LessonID       string               `json:"lesson_id"`
	PreviousStatus models.LessonStatus  `json:"previous_status"`
	Status         models.LessonStatus  `json:"status"`
	Outcome        string               `json:"outcome"`
	Price          decimal.Decimal      `json:"price"`
	CurrencyID     *string              `json:"currency_id,omitempty"`
	Recorded       []models.Transaction `json:"recorded,omitempty"`
	Reversed       []models.Transaction `json:"reversed,omitempty"`
}

// LessonBillingService runs the lesson status state machine: finishing a
// planned lesson bills it, returning it to planned pays it back.
type LessonBillingService struct {
	store      billingStore
	catalog    billingCatalog
	calculator *billing.Calculator
	ledger     *LedgerWriter
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewLessonBillingService constructs the service.
func NewLessonBillingService(store billingStore, catalog billingCatalog, calculator *billing.Calculator, ledger *LedgerWriter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LessonBillingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ledger == nil {
		ledger = NewLedgerWriter(logger)
	}
	return &LessonBillingService{
		store:      store,
		catalog:    catalog,
		calculator: calculator,
		ledger:     ledger,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// FinishLesson moves a teacher's lesson to conducted or missed.
func (s *LessonBillingService) FinishLesson(ctx context.Context, teacherID, lessonID string, status models.LessonStatus) (*LessonBillingResult, error) {
	if !status.IsFinished() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be conducted or missed")
	}
	return s.SetLessonStatus(ctx, LessonStatusChange{TeacherID: teacherID, LessonID: lessonID, Status: string(status)})
}

// PaybackLesson returns a lesson to planned, reversing its transactions.
func (s *LessonBillingService) PaybackLesson(ctx context.Context, lessonID string) (*LessonBillingResult, error) {
	return s.SetLessonStatus(ctx, LessonStatusChange{LessonID: lessonID, Status: string(models.LessonStatusPlanned)})
}

// SetLessonStatus applies one transition inside a single database
// transaction with the lesson row locked. Any error leaves the lesson and
// every wallet untouched.
func (s *LessonBillingService) SetLessonStatus(ctx context.Context, change LessonStatusChange) (*LessonBillingResult, error) {
	if err := s.validator.Struct(change); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson status change")
	}
	target, ok := models.ParseLessonStatus(change.Status)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown lesson status %q", change.Status))
	}
	if s.calculator == nil {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "price calculator is not configured")
	}

	start := time.Now()
	var (
		result *LessonBillingResult
		lesson *models.Lesson
	)
	err := s.store.WithinTx(ctx, func(q repository.BillingQueries) error {
		var err error
		lesson, err = q.LockLesson(ctx, change.LessonID)
		if err != nil {
			return notFound(err, "lesson not found")
		}
		if change.TeacherID != "" && (lesson.TeacherID == nil || *lesson.TeacherID != change.TeacherID) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}

		result = &LessonBillingResult{LessonID: lesson.ID, PreviousStatus: lesson.Status, Status: target}
		switch {
		case lesson.Status == target:
			result.Outcome = OutcomeNoop
		case target == models.LessonStatusPlanned:
			result.Outcome = OutcomePayback
			result.Reversed, err = s.payback(ctx, q, lesson)
		case lesson.Status.IsFinished():
			result.Outcome = OutcomeStatusOnly
			lesson.Status = target
			err = q.UpdateLessonBilling(ctx, lesson)
		default:
			result.Outcome = OutcomeFinished
			result.Recorded, err = s.finish(ctx, q, lesson, target)
		}
		if err != nil {
			return err
		}
		result.Price = lesson.Price
		result.CurrencyID = lesson.CurrencyID
		return nil
	})

	operation := string(target)
	if err != nil {
		s.metrics.ObserveBilling(operation, OutcomeFailed, time.Since(start))
		s.logger.Warn("lesson status change failed",
			zap.String("lesson_id", change.LessonID),
			zap.String("status", change.Status),
			zap.Error(err),
		)
		return nil, asAppError(err, "failed to change lesson status")
	}

	s.metrics.ObserveBilling(operation, result.Outcome, time.Since(start))
	for _, txn := range result.Recorded {
		s.metrics.RecordLedger(txn.OwnerKind, txn.Direction, "record", txn.Price)
	}
	for _, txn := range result.Reversed {
		s.metrics.RecordLedger(txn.OwnerKind, txn.Direction, "reverse", txn.Price)
	}
	s.invalidateReports(ctx, append(result.Recorded, result.Reversed...))

	s.logger.Info("lesson status changed",
		zap.String("lesson_id", result.LessonID),
		zap.String("from", string(result.PreviousStatus)),
		zap.String("to", string(result.Status)),
		zap.String("outcome", result.Outcome),
		zap.String("price", result.Price.String()),
	)
	return result, nil
}

func (s *LessonBillingService) finish(ctx context.Context, q repository.BillingQueries, lesson *models.Lesson, target models.LessonStatus) ([]models.Transaction, error) {
	students, err := q.LockLessonStudents(ctx, lesson.ID)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson has no students")
	}
	if lesson.TeacherID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson has no teacher")
	}
	teacher, err := q.GetTeacher(ctx, *lesson.TeacherID)
	if err != nil {
		return nil, notFound(err, "teacher not found")
	}

	var company *models.Company
	if companyID, ok := billing.SharedCompanyID(students); ok {
		company, err = q.LockCompany(ctx, companyID)
		if err != nil {
			return nil, notFound(err, "company not found")
		}
	}

	owners := []PlanOwner{{Kind: models.OwnerTeacher, ID: teacher.ID, Billable: &teacher.Billable}}
	for i := range students {
		owners = append(owners, PlanOwner{Kind: models.OwnerStudent, ID: students[i].ID, Billable: &students[i].Billable})
	}
	if company != nil {
		owners = append(owners, PlanOwner{Kind: models.OwnerCompany, ID: company.ID, Billable: &company.Billable})
	}
	if err := s.catalog.AttachPlans(ctx, owners...); err != nil {
		return nil, err
	}
	currencies, err := s.catalog.Currencies(ctx)
	if err != nil {
		return nil, err
	}
	currency, err := billing.LessonCurrency(students, company, currencies)
	if err != nil {
		return nil, err
	}

	groupSize := len(students)
	studentPrices := make([]decimal.Decimal, groupSize)
	for i, student := range students {
		if studentPrices[i], err = s.calculator.StudentPrice(student, lesson.DurationMinutes, groupSize, company, lesson.ScheduledAt); err != nil {
			return nil, err
		}
	}
	lessonPrice, err := s.calculator.LessonPrice(students, lesson.DurationMinutes, company, lesson.ScheduledAt)
	if err != nil {
		return nil, err
	}

	lesson.Status = target
	lesson.Price = lessonPrice
	lesson.Currency = currency
	lesson.CurrencyID = &currency.ID
	lesson.Students = students
	if err := q.UpdateLessonBilling(ctx, lesson); err != nil {
		return nil, err
	}

	teacherPrice, err := s.calculator.TeacherPrice(*teacher, *lesson, groupSize)
	if err != nil {
		return nil, err
	}

	description := billing.PaymentDescription(*lesson)
	entries := []LedgerEntry{{
		OwnerKind:   models.OwnerTeacher,
		OwnerID:     teacher.ID,
		Price:       teacherPrice,
		Direction:   models.DirectionIncoming,
		Description: description,
	}}
	if company != nil {
		companyPrice, err := s.calculator.CompanyPrice(*company, lesson.DurationMinutes, groupSize, lesson.ScheduledAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, LedgerEntry{
			OwnerKind:   models.OwnerCompany,
			OwnerID:     company.ID,
			Price:       companyPrice,
			Direction:   models.DirectionOutgoing,
			Description: description,
		})
	}
	for i, student := range students {
		entries = append(entries, LedgerEntry{
			OwnerKind:   models.OwnerStudent,
			OwnerID:     student.ID,
			Price:       studentPrices[i],
			Direction:   models.DirectionOutgoing,
			Description: description,
		})
	}

	recorded := make([]models.Transaction, 0, len(entries))
	for _, entry := range entries {
		entry.LessonID = &lesson.ID
		txn, err := s.ledger.Record(ctx, q, entry)
		if err != nil {
			return nil, err
		}
		recorded = append(recorded, *txn)
	}
	return recorded, nil
}

func (s *LessonBillingService) payback(ctx context.Context, q repository.BillingQueries, lesson *models.Lesson) ([]models.Transaction, error) {
	lesson.Status = models.LessonStatusPlanned
	lesson.Price = decimal.Zero
	lesson.Currency = nil
	lesson.CurrencyID = nil
	if err := q.UpdateLessonBilling(ctx, lesson); err != nil {
		return nil, err
	}

	txns, err := q.ListLessonTransactions(ctx, lesson.ID)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, appErrors.Clone(appErrors.ErrMissingTransaction, fmt.Sprintf("lesson %s has no transactions to reverse", lesson.ID))
	}
	hasTeacher := false
	for _, txn := range txns {
		if txn.OwnerKind == models.OwnerTeacher {
			hasTeacher = true
			break
		}
	}
	if !hasTeacher {
		return nil, appErrors.Clone(appErrors.ErrMissingTransaction, fmt.Sprintf("lesson %s has no teacher transaction", lesson.ID))
	}

	for _, txn := range txns {
		if err := s.ledger.Reverse(ctx, q, txn); err != nil {
			return nil, err
		}
	}
	return txns, nil
}

func (s *LessonBillingService) invalidateReports(ctx context.Context, txns []models.Transaction) {
	keys := make([]string, 0, len(txns))
	for _, txn := range txns {
		switch txn.OwnerKind {
		case models.OwnerTeacher, models.OwnerCompany:
			keys = append(keys, reportOwnerPattern(txn.OwnerKind, txn.OwnerID))
		}
	}
	for _, pattern := range uniqueStrings(keys) {
		s.cache.InvalidatePattern(ctx, pattern)
	}
}

func notFound(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, message)
	}
	return err
}

// asAppError keeps typed errors and hides everything else behind ErrInternal.
func asAppError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
