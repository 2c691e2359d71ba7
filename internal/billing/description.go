package billing

import (
	"fmt"
	"strings"

	"github.com/noah-isme/lms-billing/internal/models"
)

// PaymentDescription renders the ledger memo for a lesson transaction, e.g.
// "For lesson 02.03.2024 - 15:30; Students: Ann Lee, Bo Kim".
func PaymentDescription(lesson models.Lesson) string {
	names := make([]string, 0, len(lesson.Students))
	for _, student := range lesson.Students {
		names = append(names, strings.TrimSpace(student.FullName))
	}
	return fmt.Sprintf("For lesson %s - %s; Students: %s",
		lesson.ScheduledAt.Format("02.01.2006"),
		lesson.ScheduledAt.Format("15:04"),
		strings.Join(names, ", "))
}

// FormatTimeLeft renders minutes as "H hour(s) M minutes".
func FormatTimeLeft(minutes int) string {
	if minutes <= 0 {
		return "0 hour(s)"
	}
	return fmt.Sprintf("%d hour(s) %d minutes", minutes/60, minutes%60)
}
