package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LessonStatus enumerates lesson lifecycle states.
type LessonStatus string

const (
	LessonStatusPlanned   LessonStatus = "planned"
	LessonStatusConducted LessonStatus = "conducted"
	LessonStatusMissed    LessonStatus = "missed"
)

// IsFinished reports whether the status carries billed transactions.
func (s LessonStatus) IsFinished() bool {
	return s == LessonStatusConducted || s == LessonStatusMissed
}

// ParseLessonStatus normalises raw input into a known status.
func ParseLessonStatus(raw string) (LessonStatus, bool) {
	switch status := LessonStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case LessonStatusPlanned, LessonStatusConducted, LessonStatusMissed:
		return status, true
	default:
		return "", false
	}
}

// Lesson is a scheduled session of one teacher with one or more students.
// Price and CurrencyID are only meaningful once the lesson is finished.
type Lesson struct {
	ID              string          `db:"id" json:"id"`
	TeacherID       *string         `db:"teacher_id" json:"teacher_id,omitempty"`
	ScheduledAt     time.Time       `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
	Status          LessonStatus    `db:"status" json:"status"`
	Theme           string          `db:"theme" json:"theme"`
	Price           decimal.Decimal `db:"price" json:"price"`
	CurrencyID      *string         `db:"currency_id" json:"currency_id,omitempty"`

	Currency *Currency `db:"-" json:"currency,omitempty"`
	Students []Student `db:"-" json:"students,omitempty"`
}
