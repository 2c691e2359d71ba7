package models

// Company sponsors students and pays for their lessons when all students of a
// lesson belong to it.
type Company struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Discount int    `db:"discount" json:"discount"`
	IsActive bool   `db:"is_active" json:"is_active"`
	Billable
}
