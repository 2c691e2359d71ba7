package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/lms-billing/internal/models"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

const moneyPlaces = 2

// Calculator prices lessons relative to a standard lesson length.
type Calculator struct {
	standardDuration int
	discounts        DiscountSchedule
}

// NewCalculator fails with ErrConfiguration when the standard duration is not positive.
func NewCalculator(standardDuration int, discounts DiscountSchedule) (*Calculator, error) {
	if standardDuration <= 0 {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "default lesson duration must be positive")
	}
	return &Calculator{standardDuration: standardDuration, discounts: discounts}, nil
}

// StandardDuration returns the configured default lesson length in minutes.
func (c *Calculator) StandardDuration() int {
	return c.standardDuration
}

// BasePrice is round(rate * duration / standard, 2). Non-positive durations cost nothing.
func (c *Calculator) BasePrice(rate decimal.Decimal, durationMinutes int) decimal.Decimal {
	if durationMinutes <= 0 {
		return decimal.Zero
	}
	return rate.
		Mul(decimal.NewFromInt(int64(durationMinutes))).
		Div(decimal.NewFromInt(int64(c.standardDuration))).
		Round(moneyPlaces)
}

// GroupFactor returns the price multiplier for a lesson of groupSize students.
func (c *Calculator) GroupFactor(groupSize int) decimal.Decimal {
	return c.discounts.Factor(groupSize)
}

// StudentPrice is what one student pays for a lesson. The group factor and,
// when a company sponsors the lesson, the company's share compose
// multiplicatively; a combined factor outside (0, 1] prices the student at zero.
func (c *Calculator) StudentPrice(student models.Student, durationMinutes, groupSize int, company *models.Company, at time.Time) (decimal.Decimal, error) {
	rate, err := EffectiveRateAt(student.Plan, at)
	if err != nil {
		return decimal.Zero, planError("student", student.ID, err)
	}
	factor := c.GroupFactor(groupSize)
	if company != nil {
		factor = factor.Mul(one.Sub(decimal.NewFromInt(int64(company.Discount)).Div(hundred)))
	}
	if !factor.IsPositive() || factor.GreaterThan(one) {
		return decimal.Zero, nil
	}
	return c.BasePrice(rate, durationMinutes).Mul(factor).Round(moneyPlaces), nil
}

// CompanyPrice is what a company pays for a lesson of groupSize students.
//
// The company rate is scaled by (1 - discount/100), except that a discount of
// exactly 100 leaves the rate untouched instead of making the lesson free.
// That inversion is long-standing behaviour billed data relies on.
func (c *Calculator) CompanyPrice(company models.Company, durationMinutes, groupSize int, at time.Time) (decimal.Decimal, error) {
	rate, err := EffectiveRateAt(company.Plan, at)
	if err != nil {
		return decimal.Zero, planError("company", company.ID, err)
	}
	if groupSize <= 0 {
		return decimal.Zero, nil
	}
	if company.Discount != 100 {
		rate = applyPercentOff(rate, company.Discount)
	}
	perStudent := c.BasePrice(rate, durationMinutes).Mul(c.GroupFactor(groupSize)).Round(moneyPlaces)
	return perStudent.Mul(decimal.NewFromInt(int64(groupSize))), nil
}

// LessonPrice is the lesson total. A sponsoring company pays CompanyPrice;
// otherwise student prices are summed, converted to the system currency
// (rounded per student) when the students do not share a currency.
func (c *Calculator) LessonPrice(students []models.Student, durationMinutes int, company *models.Company, at time.Time) (decimal.Decimal, error) {
	groupSize := len(students)
	if company != nil {
		return c.CompanyPrice(*company, durationMinutes, groupSize, at)
	}

	shared := SharedCurrency(students) != nil
	total := decimal.Zero
	for _, student := range students {
		price, err := c.StudentPrice(student, durationMinutes, groupSize, nil, at)
		if err != nil {
			return decimal.Zero, err
		}
		if !shared {
			converted, err := ToDefault(price, student.Currency())
			if err != nil {
				return decimal.Zero, err
			}
			price = converted.Round(moneyPlaces)
		}
		total = total.Add(price)
	}
	return total, nil
}

// TeacherPrice is what the teacher earns for a finished lesson. A teacher
// with a zero effective rate earns the lesson price itself, converted into
// the teacher's currency.
func (c *Calculator) TeacherPrice(teacher models.Teacher, lesson models.Lesson, groupSize int) (decimal.Decimal, error) {
	rate, err := EffectiveRateAt(teacher.Plan, lesson.ScheduledAt)
	if err != nil {
		return decimal.Zero, planError("teacher", teacher.ID, err)
	}
	if !rate.IsZero() {
		return c.BasePrice(rate, lesson.DurationMinutes).Mul(decimal.NewFromInt(int64(groupSize))), nil
	}

	if lesson.Price.IsZero() {
		return decimal.Zero, nil
	}
	if lesson.Currency.SameAs(teacher.Currency()) {
		return lesson.Price.Round(moneyPlaces), nil
	}
	converted, err := Convert(lesson.Price, lesson.Currency, teacher.Currency())
	if err != nil {
		return decimal.Zero, err
	}
	return converted.Round(moneyPlaces), nil
}

// MinutesCovered is how many lesson minutes wallet pays for at rate per
// standard lesson. Empty wallets and zero rates cover nothing.
func (c *Calculator) MinutesCovered(wallet, rate decimal.Decimal) int {
	if !wallet.IsPositive() || !rate.IsPositive() {
		return 0
	}
	return int(wallet.Div(rate).Mul(decimal.NewFromInt(int64(c.standardDuration))).Floor().IntPart())
}

func planError(owner, id string, err error) error {
	return appErrors.Wrapf(appErrors.ErrInvalidPlan, err, "%s %s: %s", owner, id, appErrors.FromError(err).Message)
}
