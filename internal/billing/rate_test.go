package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

func TestEffectiveRate(t *testing.T) {
	rate, err := EffectiveRate(plan("100", 0, nil))
	require.NoError(t, err)
	assert.Equal(t, "100", rate.String())

	rate, err = EffectiveRate(plan("80", 25, nil))
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("60")))

	rate, err = EffectiveRate(plan("80", 100, nil))
	require.NoError(t, err)
	assert.True(t, rate.IsZero())
}

func TestEffectiveRateInvalidPlan(t *testing.T) {
	_, err := EffectiveRate(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidPlan))

	_, err = EffectiveRate(plan("10", 120, nil))
	assert.True(t, errors.Is(err, appErrors.ErrInvalidPlan))

	_, err = EffectiveRate(plan("-1", 0, nil))
	assert.True(t, errors.Is(err, appErrors.ErrInvalidPlan))
}

func TestEffectiveRateAtHonoursDiscountEnd(t *testing.T) {
	p := plan("100", 10, nil)
	ends := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	p.DiscountEndsOn = &ends

	sameDay, err := EffectiveRateAt(p, lessonDay)
	require.NoError(t, err)
	assert.True(t, sameDay.Equal(dec("90")), "discount applies through its last day")

	nextDay, err := EffectiveRateAt(p, lessonDay.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, nextDay.Equal(dec("100")))

	undated, err := EffectiveRate(p)
	require.NoError(t, err)
	assert.True(t, undated.Equal(dec("90")))
}
