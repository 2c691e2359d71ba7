package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/lms-billing/internal/models"
)

const ledgerBalanceExpr = `COALESCE((SELECT SUM(CASE t.direction WHEN '+' THEN t.price ELSE -t.price END)
    FROM transactions t WHERE t.owner_kind = $1 AND t.owner_id = w.id), 0)`

// AccountRepository reads wallets and compares them with the ledger.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository constructs the repository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetStudent fetches a student without locking.
func (r *AccountRepository) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	const query = `SELECT id, user_id, full_name, company_id, teacher_id, plan_id, wallet, created_at
FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID); err != nil {
		return nil, fmt.Errorf("get student %s: %w", studentID, err)
	}
	return &student, nil
}

// WalletSnapshot compares one owner's wallet with its ledger balance.
func (r *AccountRepository) WalletSnapshot(ctx context.Context, kind models.OwnerKind, ownerID string) (*models.WalletSnapshot, error) {
	table, err := walletTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT $1::text AS owner_kind, w.id AS owner_id, w.wallet, %s AS ledger_balance
FROM %s w WHERE w.id = $2`, ledgerBalanceExpr, table)
	var snapshot models.WalletSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, kind, ownerID); err != nil {
		return nil, fmt.Errorf("wallet snapshot %s %s: %w", kind, ownerID, err)
	}
	return &snapshot, nil
}

// DriftedWallets lists owners of kind whose wallet differs from the ledger.
func (r *AccountRepository) DriftedWallets(ctx context.Context, kind models.OwnerKind) ([]models.WalletSnapshot, error) {
	table, err := walletTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT * FROM (
    SELECT $1::text AS owner_kind, w.id AS owner_id, w.wallet, %s AS ledger_balance FROM %s w
) snapshots WHERE wallet <> ledger_balance ORDER BY owner_id`, ledgerBalanceExpr, table)
	var snapshots []models.WalletSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, kind); err != nil {
		return nil, fmt.Errorf("list drifted %s wallets: %w", kind, err)
	}
	return snapshots, nil
}

// ResetWalletFromLedger overwrites a wallet with its ledger balance in one
// statement and returns the new value.
func (r *AccountRepository) ResetWalletFromLedger(ctx context.Context, kind models.OwnerKind, ownerID string) (decimal.Decimal, error) {
	table, err := walletTable(kind)
	if err != nil {
		return decimal.Zero, err
	}
	query := fmt.Sprintf(`UPDATE %s w SET wallet = %s WHERE w.id = $2 RETURNING w.wallet`, table, ledgerBalanceExpr)
	var wallet decimal.Decimal
	if err := r.db.GetContext(ctx, &wallet, query, kind, ownerID); err != nil {
		return decimal.Zero, fmt.Errorf("reset %s %s wallet: %w", kind, ownerID, err)
	}
	return wallet, nil
}
