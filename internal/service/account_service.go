package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-billing/internal/billing"
	"github.com/noah-isme/lms-billing/internal/models"
)

type studentReader interface {
	GetStudent(ctx context.Context, studentID string) (*models.Student, error)
}

type planAttacher interface {
	AttachPlans(ctx context.Context, owners ...PlanOwner) error
}

// AccountService answers wallet questions for students.
type AccountService struct {
	students   studentReader
	catalog    planAttacher
	calculator *billing.Calculator
	now        func() time.Time
	logger     *zap.Logger
}

// NewAccountService constructs the service.
func NewAccountService(students studentReader, catalog planAttacher, calculator *billing.Calculator, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{students: students, catalog: catalog, calculator: calculator, now: time.Now, logger: logger}
}

// StudentBalance returns the wallet and the lesson time it still pays for at
// the student's current rate.
func (s *AccountService) StudentBalance(ctx context.Context, studentID string) (*models.StudentBalance, error) {
	student, err := s.students.GetStudent(ctx, studentID)
	if err != nil {
		return nil, asAppError(notFound(err, "student not found"), "failed to load student")
	}
	if err := s.catalog.AttachPlans(ctx, PlanOwner{Kind: models.OwnerStudent, ID: student.ID, Billable: &student.Billable}); err != nil {
		return nil, err
	}
	rate, err := billing.EffectiveRateAt(student.Plan, s.now())
	if err != nil {
		return nil, err
	}

	minutes := s.calculator.MinutesCovered(student.Wallet, rate)
	balance := &models.StudentBalance{
		StudentID:   student.ID,
		Wallet:      student.Wallet.StringFixed(2),
		MinutesLeft: minutes,
		TimeLeft:    billing.FormatTimeLeft(minutes),
	}
	if currency := student.Currency(); currency != nil {
		code := currency.Code
		balance.CurrencyCode = &code
	}
	return balance, nil
}
