package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-billing/internal/models"
	"github.com/noah-isme/lms-billing/internal/repository"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

type recentPaymentsRepository interface {
	RecentPayments(ctx context.Context, limit int) ([]models.PaymentRecord, error)
}

// ManualPaymentRequest tops up or debits a student or company wallet outside
// any lesson.
type ManualPaymentRequest struct {
	OwnerKind         string `json:"owner_kind" validate:"required,oneof=student company"`
	OwnerID           string `json:"owner_id" validate:"required"`
	Amount            string `json:"amount" validate:"required"`
	TransactionTypeID string `json:"transaction_type_id" validate:"required"`
	Description       string `json:"description" validate:"max=500"`
}

// PaymentService records manual payments and lists recent ones.
type PaymentService struct {
	store     billingStore
	recent    recentPaymentsRepository
	ledger    *LedgerWriter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs the service.
func NewPaymentService(store billingStore, recent recentPaymentsRepository, ledger *LedgerWriter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ledger == nil {
		ledger = NewLedgerWriter(logger)
	}
	return &PaymentService{store: store, recent: recent, ledger: ledger, metrics: metrics, validator: validate, logger: logger}
}

// AddPayment records a manual transaction whose direction comes from its type.
func (s *PaymentService) AddPayment(ctx context.Context, req ManualPaymentRequest) (*models.Transaction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be a decimal number")
	}
	if !amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	if amount.Exponent() < -2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must have at most two decimal places")
	}
	kind := models.OwnerKind(req.OwnerKind)

	var txn *models.Transaction
	err = s.store.WithinTx(ctx, func(q repository.BillingQueries) error {
		txnType, err := q.GetTransactionType(ctx, req.TransactionTypeID)
		if err != nil {
			return notFound(err, "transaction type not found")
		}
		description := strings.TrimSpace(req.Description)
		switch kind {
		case models.OwnerStudent:
			owner, err := q.LockStudent(ctx, req.OwnerID)
			if err != nil {
				return notFound(err, "student not found")
			}
			if description == "" {
				description = defaultPaymentDescription(txnType, owner.FullName)
			}
		case models.OwnerCompany:
			owner, err := q.LockCompany(ctx, req.OwnerID)
			if err != nil {
				return notFound(err, "company not found")
			}
			if description == "" {
				description = defaultPaymentDescription(txnType, owner.Name)
			}
		}

		txn, err = s.ledger.Record(ctx, q, LedgerEntry{
			OwnerKind:         kind,
			OwnerID:           req.OwnerID,
			Price:             amount,
			Direction:         txnType.Direction,
			TransactionTypeID: &txnType.ID,
			Description:       description,
		})
		return err
	})
	if err != nil {
		return nil, asAppError(err, "failed to record payment")
	}

	s.metrics.RecordLedger(txn.OwnerKind, txn.Direction, "record", txn.Price)
	s.logger.Info("manual payment recorded",
		zap.String("transaction_id", txn.ID),
		zap.String("owner_kind", string(txn.OwnerKind)),
		zap.String("owner_id", txn.OwnerID),
		zap.String("direction", string(txn.Direction)),
		zap.String("amount", txn.Price.String()),
	)
	return txn, nil
}

// Recent lists the latest manual payments, newest first.
func (s *PaymentService) Recent(ctx context.Context, limit int) ([]models.PaymentRecord, error) {
	records, err := s.recent.RecentPayments(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent payments")
	}
	if records == nil {
		records = []models.PaymentRecord{}
	}
	return records, nil
}

func defaultPaymentDescription(txnType *models.TransactionType, ownerName string) string {
	title := "Manual payment"
	if txnType.Title != nil && *txnType.Title != "" {
		title = *txnType.Title
	}
	return fmt.Sprintf("%s: %s", title, ownerName)
}
