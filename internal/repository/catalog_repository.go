package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-billing/internal/models"
)

// CatalogRepository reads the currency and price plan reference data.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListCurrencies returns every configured currency.
func (r *CatalogRepository) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	const query = `SELECT id, code, symbol, exchange, is_default FROM currencies ORDER BY code`
	var currencies []models.Currency
	if err := r.db.SelectContext(ctx, &currencies, query); err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	return currencies, nil
}

// ListPlans returns the plans with the given ids. Unknown ids are skipped.
func (r *CatalogRepository) ListPlans(ctx context.Context, ids []string) ([]models.PricePlan, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, title, description, price, currency_id, discount, discount_ends_on
FROM price_plans WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("build price plan query: %w", err)
	}
	var plans []models.PricePlan
	if err := r.db.SelectContext(ctx, &plans, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list price plans: %w", err)
	}
	return plans, nil
}

// ListTransactionTypes returns the manual payment types.
func (r *CatalogRepository) ListTransactionTypes(ctx context.Context) ([]models.TransactionType, error) {
	const query = `SELECT id, title, description, direction, is_system FROM transaction_types ORDER BY title`
	var types []models.TransactionType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list transaction types: %w", err)
	}
	return types, nil
}
