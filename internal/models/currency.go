package models

import "github.com/shopspring/decimal"

// Currency is a system currency with its exchange factor against the default
// one: price_in_default = price / Exchange.
type Currency struct {
	ID        string          `db:"id" json:"id"`
	Code      string          `db:"code" json:"code"`
	Symbol    *string         `db:"symbol" json:"symbol,omitempty"`
	Exchange  decimal.Decimal `db:"exchange" json:"exchange"`
	IsDefault bool            `db:"is_default" json:"is_default"`
}

// SameAs reports whether both currencies are the same entity.
func (c *Currency) SameAs(other *Currency) bool {
	if c == nil || other == nil {
		return false
	}
	return c.ID == other.ID
}
