package models

import "time"

// Student attends lessons and pays from a wallet that may go negative.
type Student struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	FullName  string    `db:"full_name" json:"full_name"`
	CompanyID *string   `db:"company_id" json:"company_id,omitempty"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Billable
}

// StudentBalance reports a wallet together with the lesson time it still covers.
type StudentBalance struct {
	StudentID    string  `json:"student_id"`
	Wallet       string  `json:"wallet"`
	CurrencyCode *string `json:"currency,omitempty"`
	MinutesLeft  int     `json:"minutes_left"`
	TimeLeft     string  `json:"time_left"`
}
