package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/lms-billing/internal/models"
)

var lessonDay = time.Date(2024, time.March, 2, 15, 30, 0, 0, time.UTC)

func dec(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

func currency(id string, exchange string, isDefault bool) *models.Currency {
	return &models.Currency{ID: id, Code: id, Exchange: dec(exchange), IsDefault: isDefault}
}

func plan(price string, discount int, cur *models.Currency) *models.PricePlan {
	p := &models.PricePlan{ID: "plan-" + price, Price: dec(price), Discount: discount, Currency: cur}
	if cur != nil {
		p.CurrencyID = &cur.ID
	}
	return p
}

func student(id string, p *models.PricePlan, companyID *string) models.Student {
	return models.Student{ID: id, FullName: "Student " + id, CompanyID: companyID, Billable: models.Billable{Plan: p}}
}

func strPtr(v string) *string {
	return &v
}

func newTestCalculator() *Calculator {
	calc, err := NewCalculator(60, DefaultDiscountSchedule())
	if err != nil {
		panic(err)
	}
	return calc
}
