package billing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

// DefaultGroupDiscountCap is the group size from which the discount stops growing.
const DefaultGroupDiscountCap = 4

// DiscountSchedule maps a group size to a percentage discount. Sizes above the
// cap use the cap's entry; sizes without an entry get no discount.
type DiscountSchedule struct {
	percents map[int]int
	cap      int
}

// DefaultDiscountSchedule is 0%, 10%, 15% and 20% for groups of 1, 2, 3 and 4+.
func DefaultDiscountSchedule() DiscountSchedule {
	return DiscountSchedule{
		percents: map[int]int{1: 0, 2: 10, 3: 15, 4: 20},
		cap:      DefaultGroupDiscountCap,
	}
}

// NewDiscountSchedule validates and copies percents.
func NewDiscountSchedule(percents map[int]int, maxSize int) (DiscountSchedule, error) {
	if maxSize < 1 {
		return DiscountSchedule{}, appErrors.Clone(appErrors.ErrConfiguration, "group discount cap must be at least 1")
	}
	copied := make(map[int]int, len(percents))
	for size, percent := range percents {
		if size < 1 || size > maxSize {
			return DiscountSchedule{}, appErrors.Clone(appErrors.ErrConfiguration,
				fmt.Sprintf("group discount size %d outside 1..%d", size, maxSize))
		}
		if percent < 0 || percent >= 100 {
			return DiscountSchedule{}, appErrors.Clone(appErrors.ErrConfiguration,
				fmt.Sprintf("group discount %d%% for size %d outside 0..99", percent, size))
		}
		copied[size] = percent
	}
	return DiscountSchedule{percents: copied, cap: maxSize}, nil
}

// ParseDiscountSchedule reads a "size:percent" list such as "1:0,2:10,3:15,4:20".
func ParseDiscountSchedule(raw string, maxSize int) (DiscountSchedule, error) {
	percents := make(map[int]int)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sizeRaw, percentRaw, ok := strings.Cut(part, ":")
		if !ok {
			return DiscountSchedule{}, appErrors.Clone(appErrors.ErrConfiguration,
				fmt.Sprintf("group discount entry %q must be size:percent", part))
		}
		size, err := strconv.Atoi(strings.TrimSpace(sizeRaw))
		if err != nil {
			return DiscountSchedule{}, appErrors.Wrapf(appErrors.ErrConfiguration, err, "group discount size %q", sizeRaw)
		}
		percent, err := strconv.Atoi(strings.TrimSpace(percentRaw))
		if err != nil {
			return DiscountSchedule{}, appErrors.Wrapf(appErrors.ErrConfiguration, err, "group discount percent %q", percentRaw)
		}
		if _, dup := percents[size]; dup {
			return DiscountSchedule{}, appErrors.Clone(appErrors.ErrConfiguration,
				fmt.Sprintf("group discount size %d listed twice", size))
		}
		percents[size] = percent
	}
	return NewDiscountSchedule(percents, maxSize)
}

// Cap returns the group size cap.
func (s DiscountSchedule) Cap() int {
	return s.cap
}

// Percent returns the discount for groupSize, keyed by min(groupSize, cap).
func (s DiscountSchedule) Percent(groupSize int) int {
	if s.cap < 1 {
		return 0
	}
	if groupSize < 1 {
		groupSize = 1
	}
	if groupSize > s.cap {
		groupSize = s.cap
	}
	return s.percents[groupSize]
}

// Factor returns 1 - Percent/100.
func (s DiscountSchedule) Factor(groupSize int) decimal.Decimal {
	return one.Sub(decimal.NewFromInt(int64(s.Percent(groupSize))).Div(hundred))
}
