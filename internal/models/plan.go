package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePlan bundles the rate, discount and currency an entity is billed or paid by.
type PricePlan struct {
	ID             string          `db:"id" json:"id"`
	Title          string          `db:"title" json:"title"`
	Description    string          `db:"description" json:"description"`
	Price          decimal.Decimal `db:"price" json:"price"`
	CurrencyID     *string         `db:"currency_id" json:"currency_id,omitempty"`
	Discount       int             `db:"discount" json:"discount"`
	DiscountEndsOn *time.Time      `db:"discount_ends_on" json:"discount_ends_on,omitempty"`

	Currency *Currency `db:"-" json:"currency,omitempty"`
}

// Billable is the billing state shared by teachers, students and companies.
type Billable struct {
	PlanID *string         `db:"plan_id" json:"plan_id,omitempty"`
	Wallet decimal.Decimal `db:"wallet" json:"wallet"`

	Plan *PricePlan `db:"-" json:"plan,omitempty"`
}

// Currency returns the currency of the attached plan, if any.
func (b Billable) Currency() *Currency {
	if b.Plan == nil {
		return nil
	}
	return b.Plan.Currency
}
