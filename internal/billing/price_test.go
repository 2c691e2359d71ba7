package billing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-billing/internal/models"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

func TestNewCalculatorRejectsNonPositiveDuration(t *testing.T) {
	_, err := NewCalculator(0, DefaultDiscountSchedule())
	assert.True(t, errors.Is(err, appErrors.ErrConfiguration))
}

func TestBasePrice(t *testing.T) {
	calc := newTestCalculator()
	assert.Equal(t, "100.00", calc.BasePrice(dec("100"), 60).StringFixed(2))
	assert.Equal(t, "50.00", calc.BasePrice(dec("100"), 30).StringFixed(2))
	assert.Equal(t, "33.33", calc.BasePrice(dec("100"), 20).StringFixed(2))
	assert.Equal(t, "0.03", calc.BasePrice(dec("0.025"), 60).StringFixed(2), "half rounds up")
	assert.True(t, calc.BasePrice(dec("100"), 0).IsZero())
	assert.True(t, calc.BasePrice(dec("0"), 60).IsZero())
}

func TestStudentPriceGroupOfThree(t *testing.T) {
	calc := newTestCalculator()
	s := student("a", plan("100", 0, currency("USD", "1", true)), nil)

	single, err := calc.StudentPrice(s, 60, 1, nil, lessonDay)
	require.NoError(t, err)
	assert.Equal(t, "100.00", single.StringFixed(2))

	grouped, err := calc.StudentPrice(s, 60, 3, nil, lessonDay)
	require.NoError(t, err)
	assert.Equal(t, "85.00", grouped.StringFixed(2))
}

func TestStudentPriceWithCompanyShare(t *testing.T) {
	calc := newTestCalculator()
	s := student("a", plan("100", 0, nil), nil)

	half, err := calc.StudentPrice(s, 60, 2, &models.Company{Discount: 50}, lessonDay)
	require.NoError(t, err)
	assert.Equal(t, "45.00", half.StringFixed(2))

	free, err := calc.StudentPrice(s, 60, 2, &models.Company{Discount: 100}, lessonDay)
	require.NoError(t, err)
	assert.True(t, free.IsZero(), "a zero combined factor prices the student at zero")

	_, err = calc.StudentPrice(student("b", nil, nil), 60, 1, nil, lessonDay)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidPlan))
}

func TestCompanyPrice(t *testing.T) {
	calc := newTestCalculator()
	company := models.Company{ID: "acme", Discount: 50, Billable: models.Billable{Plan: plan("100", 0, nil)}}

	total, err := calc.CompanyPrice(company, 30, 2, lessonDay)
	require.NoError(t, err)
	assert.Equal(t, "45.00", total.StringFixed(2))

	company.Discount = 0
	total, err = calc.CompanyPrice(company, 60, 3, lessonDay)
	require.NoError(t, err)
	assert.Equal(t, "255.00", total.StringFixed(2))
}

func TestCompanyPriceFullDiscountKeepsRawRate(t *testing.T) {
	calc := newTestCalculator()
	company := models.Company{ID: "acme", Discount: 100, Billable: models.Billable{Plan: plan("100", 0, nil)}}

	total, err := calc.CompanyPrice(company, 60, 1, lessonDay)
	require.NoError(t, err)
	assert.Equal(t, "100.00", total.StringFixed(2))
}

func TestLessonPriceCompanyIgnoresStudentCurrencies(t *testing.T) {
	calc := newTestCalculator()
	gbp := currency("GBP", "0.8", false)
	company := &models.Company{ID: "acme", Discount: 0, Billable: models.Billable{Plan: plan("100", 0, gbp)}}
	students := []models.Student{
		student("a", plan("10", 0, currency("USD", "1", true)), strPtr("acme")),
		student("b", plan("999", 0, currency("EUR", "0.9", false)), strPtr("acme")),
		student("c", plan("1", 0, currency("JPY", "150", false)), strPtr("acme")),
	}

	total, err := calc.LessonPrice(students, 60, company, lessonDay)
	require.NoError(t, err)
	companyTotal, err := calc.CompanyPrice(*company, 60, 3, lessonDay)
	require.NoError(t, err)
	assert.True(t, total.Equal(companyTotal))
	assert.Equal(t, "255.00", total.StringFixed(2))
}

func TestLessonPriceSharedCurrency(t *testing.T) {
	calc := newTestCalculator()
	eur := currency("EUR", "0.9", false)
	students := []models.Student{
		student("a", plan("100", 0, eur), nil),
		student("b", plan("100", 0, eur), nil),
		student("c", plan("100", 0, eur), nil),
	}

	total, err := calc.LessonPrice(students, 60, nil, lessonDay)
	require.NoError(t, err)
	assert.Equal(t, "255.00", total.StringFixed(2))
}

func TestLessonPriceMixedCurrencies(t *testing.T) {
	calc := newTestCalculator()
	two, err := NewDiscountSchedule(map[int]int{1: 0, 2: 0}, 2)
	require.NoError(t, err)
	flat, err := NewCalculator(60, two)
	require.NoError(t, err)

	students := []models.Student{
		student("a", plan("100", 0, currency("USD", "1", true)), nil),
		student("b", plan("100", 0, currency("EUR", "0.9", false)), nil),
	}

	total, err := flat.LessonPrice(students, 60, nil, lessonDay)
	require.NoError(t, err)
	assert.Equal(t, "211.11", total.StringFixed(2))

	grouped, err := calc.LessonPrice(students, 60, nil, lessonDay)
	require.NoError(t, err)
	assert.Equal(t, "190.00", grouped.StringFixed(2))
}

func TestLessonPriceZeroDuration(t *testing.T) {
	calc := newTestCalculator()
	students := []models.Student{student("a", plan("100", 0, currency("USD", "1", true)), nil)}

	total, err := calc.LessonPrice(students, 0, nil, lessonDay)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestTeacherPriceFlatRate(t *testing.T) {
	calc := newTestCalculator()
	teacher := models.Teacher{ID: "t1", Billable: models.Billable{Plan: plan("40", 0, currency("USD", "1", true))}}
	lesson := models.Lesson{ID: "l1", DurationMinutes: 90, ScheduledAt: lessonDay}

	earned, err := calc.TeacherPrice(teacher, lesson, 2)
	require.NoError(t, err)
	assert.Equal(t, "120.00", earned.StringFixed(2))
}

func TestTeacherPriceShareCrossCurrency(t *testing.T) {
	calc := newTestCalculator()
	eur := currency("EUR", "0.9", false)
	gbp := currency("GBP", "0.8", false)
	teacher := models.Teacher{ID: "t1", Billable: models.Billable{Plan: plan("0", 0, gbp)}}
	lesson := models.Lesson{ID: "l1", DurationMinutes: 60, ScheduledAt: lessonDay, Price: dec("90"), Currency: eur}

	earned, err := calc.TeacherPrice(teacher, lesson, 1)
	require.NoError(t, err)
	assert.Equal(t, "80.00", earned.StringFixed(2))

	lesson.Price = dec("100")
	earned, err = calc.TeacherPrice(teacher, lesson, 1)
	require.NoError(t, err)
	assert.Equal(t, "88.89", earned.StringFixed(2))
}

func TestTeacherPriceShareSameCurrency(t *testing.T) {
	calc := newTestCalculator()
	usd := currency("USD", "1", true)
	teacher := models.Teacher{ID: "t1", Billable: models.Billable{Plan: plan("0", 0, usd)}}
	lesson := models.Lesson{ID: "l1", DurationMinutes: 60, ScheduledAt: lessonDay, Price: dec("211.114"), Currency: usd}

	earned, err := calc.TeacherPrice(teacher, lesson, 2)
	require.NoError(t, err)
	assert.Equal(t, "211.11", earned.StringFixed(2))
}

func TestTeacherPriceRequiresPlan(t *testing.T) {
	calc := newTestCalculator()
	_, err := calc.TeacherPrice(models.Teacher{ID: "t1"}, models.Lesson{ID: "l1"}, 1)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidPlan))
}

func TestMinutesCovered(t *testing.T) {
	calc := newTestCalculator()
	assert.Equal(t, 90, calc.MinutesCovered(dec("150"), dec("100")))
	assert.Equal(t, 0, calc.MinutesCovered(dec("-5"), dec("100")))
	assert.Equal(t, 0, calc.MinutesCovered(dec("50"), dec("0")))
	assert.Equal(t, "1 hour(s) 30 minutes", FormatTimeLeft(90))
	assert.Equal(t, "0 hour(s)", FormatTimeLeft(0))
}

func TestPaymentDescription(t *testing.T) {
	lesson := models.Lesson{
		ScheduledAt: lessonDay,
		Students:    []models.Student{{FullName: "Ann Lee"}, {FullName: "Bo Kim "}},
	}
	assert.Equal(t, "For lesson 02.03.2024 - 15:30; Students: Ann Lee, Bo Kim", PaymentDescription(lesson))
}
