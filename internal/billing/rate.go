package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/lms-billing/internal/models"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// EffectiveRate returns the plan price with its discount applied.
func EffectiveRate(plan *models.PricePlan) (decimal.Decimal, error) {
	return effectiveRate(plan, nil)
}

// EffectiveRateAt is EffectiveRate for a given day: a discount whose end date
// is before that day no longer applies.
func EffectiveRateAt(plan *models.PricePlan, at time.Time) (decimal.Decimal, error) {
	return effectiveRate(plan, &at)
}

func effectiveRate(plan *models.PricePlan, at *time.Time) (decimal.Decimal, error) {
	if plan == nil {
		return decimal.Zero, appErrors.Clone(appErrors.ErrInvalidPlan, "price plan is not set")
	}
	if plan.Discount < 0 || plan.Discount > 100 {
		return decimal.Zero, appErrors.Clone(appErrors.ErrInvalidPlan, "price plan discount must be within 0..100")
	}
	if plan.Price.IsNegative() {
		return decimal.Zero, appErrors.Clone(appErrors.ErrInvalidPlan, "price plan price must not be negative")
	}
	if plan.Discount == 0 || discountExpired(plan.DiscountEndsOn, at) {
		return plan.Price, nil
	}
	return applyPercentOff(plan.Price, plan.Discount), nil
}

// applyPercentOff returns amount * (100 - percent) / 100.
func applyPercentOff(amount decimal.Decimal, percent int) decimal.Decimal {
	return amount.Mul(hundred.Sub(decimal.NewFromInt(int64(percent)))).Div(hundred)
}

func discountExpired(endsOn, at *time.Time) bool {
	if endsOn == nil || at == nil {
		return false
	}
	return dayOf(*at).After(dayOf(*endsOn))
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
