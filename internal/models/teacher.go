package models

import "time"

// Teacher conducts lessons and earns per lesson. Earnings live in the ledger
// only, so the embedded wallet stays zero.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	FullName  string    `db:"full_name" json:"full_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Billable
}
