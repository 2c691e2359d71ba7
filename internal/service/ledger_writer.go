package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-billing/internal/models"
	"github.com/noah-isme/lms-billing/internal/repository"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

// LedgerEntry describes a transaction to append.
type LedgerEntry struct {
	OwnerKind         models.OwnerKind
	OwnerID           string
	LessonID          *string
	Price             decimal.Decimal
	Direction         models.Direction
	TransactionTypeID *string
	Description       string
}

// LedgerWriter appends and reverses transactions together with the wallet
// changes they imply. It never opens a database transaction itself: callers
// pass the BillingQueries of their unit of work.
type LedgerWriter struct {
	logger *zap.Logger
}

// NewLedgerWriter constructs a LedgerWriter.
func NewLedgerWriter(logger *zap.Logger) *LedgerWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerWriter{logger: logger}
}

// Record inserts the transaction, then moves the owner's wallet by +price for
// incoming and -price for outgoing entries. Teachers have no wallet.
func (w *LedgerWriter) Record(ctx context.Context, q repository.BillingQueries, entry LedgerEntry) (*models.Transaction, error) {
	if !entry.OwnerKind.Valid() || entry.OwnerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid transaction owner %q/%q", entry.OwnerKind, entry.OwnerID))
	}
	if !entry.Direction.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid transaction direction %q", entry.Direction))
	}
	if entry.Price.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "transaction price must not be negative")
	}

	txn := &models.Transaction{
		OwnerKind:         entry.OwnerKind,
		OwnerID:           entry.OwnerID,
		LessonID:          entry.LessonID,
		Price:             entry.Price,
		Direction:         entry.Direction,
		TransactionTypeID: entry.TransactionTypeID,
		Description:       entry.Description,
	}
	if err := q.InsertTransaction(ctx, txn); err != nil {
		return nil, err
	}
	if txn.OwnerKind.HasWallet() {
		if err := q.AdjustWallet(ctx, txn.OwnerKind, txn.OwnerID, txn.WalletDelta()); err != nil {
			return nil, err
		}
	}

	w.logger.Debug("ledger transaction recorded",
		zap.String("transaction_id", txn.ID),
		zap.String("owner_kind", string(txn.OwnerKind)),
		zap.String("owner_id", txn.OwnerID),
		zap.String("direction", string(txn.Direction)),
		zap.String("price", txn.Price.String()),
	)
	return txn, nil
}

// Reverse gives back what txn took from, or retracts what it added to, the
// owner's wallet and deletes the record.
func (w *LedgerWriter) Reverse(ctx context.Context, q repository.BillingQueries, txn models.Transaction) error {
	if txn.OwnerKind.HasWallet() {
		if err := q.AdjustWallet(ctx, txn.OwnerKind, txn.OwnerID, txn.WalletDelta().Neg()); err != nil {
			return err
		}
	}
	if err := q.DeleteTransaction(ctx, txn.ID); err != nil {
		return err
	}

	w.logger.Debug("ledger transaction reversed",
		zap.String("transaction_id", txn.ID),
		zap.String("owner_kind", string(txn.OwnerKind)),
		zap.String("owner_id", txn.OwnerID),
	)
	return nil
}
