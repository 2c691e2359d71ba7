package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-billing/internal/billing"
	"github.com/noah-isme/lms-billing/internal/models"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

const (
	catalogCurrenciesKey = "catalog:currencies"
	catalogTypesKey      = "catalog:transaction-types"
	catalogPlanPrefix    = "catalog:plan:"
)

type catalogRepository interface {
	ListCurrencies(ctx context.Context) ([]models.Currency, error)
	ListPlans(ctx context.Context, ids []string) ([]models.PricePlan, error)
	ListTransactionTypes(ctx context.Context) ([]models.TransactionType, error)
}

// CatalogService serves currencies, price plans and transaction types, the
// read-only reference data billing runs on.
type CatalogService struct {
	repo   catalogRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService constructs the service. cache may be nil.
func NewCatalogService(repo catalogRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Currencies returns every configured currency.
func (s *CatalogService) Currencies(ctx context.Context) ([]models.Currency, error) {
	var currencies []models.Currency
	if s.cache.Get(ctx, catalogCurrenciesKey, &currencies) {
		return currencies, nil
	}
	currencies, err := s.repo.ListCurrencies(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load currencies")
	}
	s.cache.Set(ctx, catalogCurrenciesKey, currencies, s.ttl)
	return currencies, nil
}

// DefaultCurrency returns the system currency.
func (s *CatalogService) DefaultCurrency(ctx context.Context) (*models.Currency, error) {
	currencies, err := s.Currencies(ctx)
	if err != nil {
		return nil, err
	}
	return billing.DefaultCurrency(currencies)
}

// Plans resolves plans by id with their currency attached. Unknown ids are
// absent from the result.
func (s *CatalogService) Plans(ctx context.Context, ids []string) (map[string]*models.PricePlan, error) {
	plans := make(map[string]*models.PricePlan, len(ids))
	var missing []string
	for _, id := range uniqueStrings(ids) {
		var plan models.PricePlan
		if s.cache.Get(ctx, catalogPlanPrefix+id, &plan) {
			plans[id] = &plan
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		loaded, err := s.repo.ListPlans(ctx, missing)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load price plans")
		}
		for i := range loaded {
			plan := loaded[i]
			plans[plan.ID] = &plan
			s.cache.Set(ctx, catalogPlanPrefix+plan.ID, plan, s.ttl)
		}
	}

	if len(plans) == 0 {
		return plans, nil
	}
	currencies, err := s.Currencies(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Currency, len(currencies))
	for i := range currencies {
		byID[currencies[i].ID] = &currencies[i]
	}
	for _, plan := range plans {
		plan.Currency = nil
		if plan.CurrencyID != nil {
			plan.Currency = byID[*plan.CurrencyID]
		}
	}
	return plans, nil
}

// AttachPlans sets Plan on every billable from its PlanID. A billable whose
// plan is unset or unknown fails with ErrInvalidPlan.
func (s *CatalogService) AttachPlans(ctx context.Context, owners ...PlanOwner) error {
	ids := make([]string, 0, len(owners))
	for _, owner := range owners {
		if owner.Billable.PlanID != nil {
			ids = append(ids, *owner.Billable.PlanID)
		}
	}
	plans, err := s.Plans(ctx, ids)
	if err != nil {
		return err
	}
	for _, owner := range owners {
		if owner.Billable.PlanID == nil {
			return appErrors.Clone(appErrors.ErrInvalidPlan, fmt.Sprintf("%s %s has no price plan", owner.Kind, owner.ID))
		}
		plan, ok := plans[*owner.Billable.PlanID]
		if !ok {
			return appErrors.Clone(appErrors.ErrInvalidPlan,
				fmt.Sprintf("%s %s references unknown price plan %s", owner.Kind, owner.ID, *owner.Billable.PlanID))
		}
		owner.Billable.Plan = plan
	}
	return nil
}

// TransactionTypes lists manual payment types.
func (s *CatalogService) TransactionTypes(ctx context.Context) ([]models.TransactionType, error) {
	var types []models.TransactionType
	if s.cache.Get(ctx, catalogTypesKey, &types) {
		return types, nil
	}
	types, err := s.repo.ListTransactionTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transaction types")
	}
	s.cache.Set(ctx, catalogTypesKey, types, s.ttl)
	return types, nil
}

// Invalidate drops all cached catalog entries.
func (s *CatalogService) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, catalogCurrenciesKey, catalogTypesKey)
	s.cache.InvalidatePattern(ctx, catalogPlanPrefix+"*")
}

// PlanOwner points at the billing state of one teacher, student or company.
type PlanOwner struct {
	Kind     models.OwnerKind
	ID       string
	Billable *models.Billable
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
