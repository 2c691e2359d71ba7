package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/lms-billing/internal/models"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

// SharedCompanyID returns the company every student belongs to. Students
// without a company, or with different companies, yield false.
func SharedCompanyID(students []models.Student) (string, bool) {
	if len(students) == 0 {
		return "", false
	}
	var shared string
	for i, student := range students {
		if student.CompanyID == nil || *student.CompanyID == "" {
			return "", false
		}
		if i == 0 {
			shared = *student.CompanyID
			continue
		}
		if *student.CompanyID != shared {
			return "", false
		}
	}
	return shared, true
}

// SharedCurrency returns the currency common to all students' plans, or nil.
func SharedCurrency(students []models.Student) *models.Currency {
	if len(students) == 0 {
		return nil
	}
	first := students[0].Currency()
	if first == nil {
		return nil
	}
	for _, student := range students[1:] {
		if !first.SameAs(student.Currency()) {
			return nil
		}
	}
	return first
}

// DefaultCurrency returns the single currency flagged as system default.
func DefaultCurrency(currencies []models.Currency) (*models.Currency, error) {
	var found *models.Currency
	for i := range currencies {
		if !currencies[i].IsDefault {
			continue
		}
		if found != nil {
			return nil, appErrors.Clone(appErrors.ErrConfiguration,
				fmt.Sprintf("currencies %s and %s are both flagged default", found.Code, currencies[i].Code))
		}
		found = &currencies[i]
	}
	if found == nil {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "no default currency configured")
	}
	return found, nil
}

// LessonCurrency picks the currency a lesson is priced in: the paying
// company's, else the students' shared one, else the system default.
func LessonCurrency(students []models.Student, company *models.Company, currencies []models.Currency) (*models.Currency, error) {
	if company != nil {
		currency := company.Currency()
		if currency == nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidPlan,
				fmt.Sprintf("company %s price plan has no currency", company.ID))
		}
		return currency, nil
	}
	if shared := SharedCurrency(students); shared != nil {
		return shared, nil
	}
	return DefaultCurrency(currencies)
}

// ToDefault converts amount into the system currency.
func ToDefault(amount decimal.Decimal, from *models.Currency) (decimal.Decimal, error) {
	if from == nil {
		return decimal.Zero, appErrors.Clone(appErrors.ErrInvalidPlan, "price plan has no currency")
	}
	if from.IsDefault {
		return amount, nil
	}
	if !from.Exchange.IsPositive() {
		return decimal.Zero, appErrors.Clone(appErrors.ErrConfiguration,
			fmt.Sprintf("currency %s has non-positive exchange", from.Code))
	}
	return amount.Div(from.Exchange), nil
}

// Convert moves amount between currencies through the system currency.
// The result is not rounded.
func Convert(amount decimal.Decimal, from, to *models.Currency) (decimal.Decimal, error) {
	if from == nil || to == nil {
		return decimal.Zero, appErrors.Clone(appErrors.ErrInvalidPlan, "currency is not set")
	}
	if from.SameAs(to) {
		return amount, nil
	}
	value, err := ToDefault(amount, from)
	if err != nil {
		return decimal.Zero, err
	}
	if to.IsDefault {
		return value, nil
	}
	if !to.Exchange.IsPositive() {
		return decimal.Zero, appErrors.Clone(appErrors.ErrConfiguration,
			fmt.Sprintf("currency %s has non-positive exchange", to.Code))
	}
	return value.Mul(to.Exchange), nil
}
