package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-billing/internal/models"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
	"github.com/noah-isme/lms-billing/pkg/jobs"
)

// JobTypeWalletReconcile is the queue job type for one wallet check.
const JobTypeWalletReconcile = "wallet.reconcile"

type walletLedgerRepository interface {
	WalletSnapshot(ctx context.Context, kind models.OwnerKind, ownerID string) (*models.WalletSnapshot, error)
	DriftedWallets(ctx context.Context, kind models.OwnerKind) ([]models.WalletSnapshot, error)
	ResetWalletFromLedger(ctx context.Context, kind models.OwnerKind, ownerID string) (decimal.Decimal, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// WalletRef identifies one wallet.
type WalletRef struct {
	OwnerKind models.OwnerKind `json:"owner_kind"`
	OwnerID   string           `json:"owner_id"`
}

// ReconcileResult compares a wallet with the balance its ledger implies.
type ReconcileResult struct {
	WalletRef
	Wallet        string `json:"wallet"`
	LedgerBalance string `json:"ledger_balance"`
	Drift         string `json:"drift"`
	Fixed         bool   `json:"fixed"`
}

// ReconciliationService detects and optionally repairs wallets that drifted
// from the sum of their transactions.
type ReconciliationService struct {
	repo    walletLedgerRepository
	queue   jobDispatcher
	metrics *MetricsService
	autoFix bool
	logger  *zap.Logger
}

// NewReconciliationService constructs the service. With autoFix, queued
// checks overwrite drifted wallets with the ledger balance.
func NewReconciliationService(repo walletLedgerRepository, metrics *MetricsService, autoFix bool, logger *zap.Logger) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{repo: repo, metrics: metrics, autoFix: autoFix, logger: logger}
}

// UseQueue routes scan findings to queue instead of checking them inline.
func (s *ReconciliationService) UseQueue(queue jobDispatcher) {
	s.queue = queue
}

// ReconcileWallet checks one wallet and, when fix is set, resets it to the ledger balance.
func (s *ReconciliationService) ReconcileWallet(ctx context.Context, ref WalletRef, fix bool) (*ReconcileResult, error) {
	if !ref.OwnerKind.HasWallet() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%q owners have no wallet", ref.OwnerKind))
	}
	snapshot, err := s.repo.WalletSnapshot(ctx, ref.OwnerKind, ref.OwnerID)
	if err != nil {
		return nil, asAppError(notFound(err, fmt.Sprintf("%s not found", ref.OwnerKind)), "failed to load wallet")
	}

	result := &ReconcileResult{
		WalletRef:     ref,
		Wallet:        snapshot.Wallet.StringFixed(2),
		LedgerBalance: snapshot.LedgerBalance.StringFixed(2),
		Drift:         snapshot.Drift().StringFixed(2),
	}
	if snapshot.Drift().IsZero() || !fix {
		return result, nil
	}

	wallet, err := s.repo.ResetWalletFromLedger(ctx, ref.OwnerKind, ref.OwnerID)
	if err != nil {
		return nil, asAppError(err, "failed to reset wallet")
	}
	result.Fixed = true
	s.logger.Warn("wallet reset to ledger balance",
		zap.String("owner_kind", string(ref.OwnerKind)),
		zap.String("owner_id", ref.OwnerID),
		zap.String("previous", result.Wallet),
		zap.String("wallet", wallet.StringFixed(2)),
	)
	return result, nil
}

// Scan finds drifted student and company wallets, publishes the counts and
// hands each one to the queue, or checks it inline when no queue is set.
func (s *ReconciliationService) Scan(ctx context.Context) (map[models.OwnerKind]int, error) {
	counts := make(map[models.OwnerKind]int, 2)
	for _, kind := range []models.OwnerKind{models.OwnerStudent, models.OwnerCompany} {
		drifted, err := s.repo.DriftedWallets(ctx, kind)
		if err != nil {
			return counts, asAppError(err, "failed to scan wallets")
		}
		counts[kind] = len(drifted)
		s.metrics.SetWalletDrift(kind, len(drifted))

		for _, snapshot := range drifted {
			ref := WalletRef{OwnerKind: kind, OwnerID: snapshot.OwnerID}
			s.logger.Warn("wallet drift detected",
				zap.String("owner_kind", string(kind)),
				zap.String("owner_id", snapshot.OwnerID),
				zap.String("drift", snapshot.Drift().StringFixed(2)),
			)
			if s.queue != nil {
				job := jobs.Job{ID: fmt.Sprintf("%s:%s", kind, snapshot.OwnerID), Type: JobTypeWalletReconcile, Payload: ref}
				if err := s.queue.Enqueue(job); err != nil {
					return counts, asAppError(err, "failed to enqueue wallet reconciliation")
				}
				continue
			}
			if _, err := s.ReconcileWallet(ctx, ref, s.autoFix); err != nil {
				return counts, err
			}
		}
	}
	return counts, nil
}

// HandleJob is the queue handler for JobTypeWalletReconcile jobs.
func (s *ReconciliationService) HandleJob(ctx context.Context, job jobs.Job) error {
	ref, ok := job.Payload.(WalletRef)
	if !ok || job.Type != JobTypeWalletReconcile {
		s.logger.Error("unexpected reconciliation job", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	_, err := s.ReconcileWallet(ctx, ref, s.autoFix)
	return err
}
