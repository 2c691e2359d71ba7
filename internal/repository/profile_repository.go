package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-billing/internal/models"
)

// ProfileResult reports the profiles a user owns after provisioning.
type ProfileResult struct {
	TeacherID *string `json:"teacher_id,omitempty"`
	StudentID *string `json:"student_id,omitempty"`
	Created   bool    `json:"created"`
	Removed   int     `json:"removed"`
}

// ProfileRepository keeps teacher and student profiles in step with user roles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Provision ensures the user owns exactly the profile its role calls for.
func (r *ProfileRepository) Provision(ctx context.Context, userID, fullName string, role models.SchoolRole) (result ProfileResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin profile transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	keep, drop := "", []string{"teachers", "students"}
	switch role {
	case models.SchoolRoleTeacher:
		keep, drop = "teachers", []string{"students"}
	case models.SchoolRoleStudent:
		keep, drop = "students", []string{"teachers"}
	}

	for _, table := range drop {
		res, execErr := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, table), userID)
		if execErr != nil {
			err = fmt.Errorf("remove %s profile: %w", table, execErr)
			return result, err
		}
		n, _ := res.RowsAffected()
		result.Removed += int(n)
	}

	if keep != "" {
		var id string
		query := fmt.Sprintf(`INSERT INTO %s (id, user_id, full_name, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET full_name = %s.full_name
RETURNING id, (xmax = 0) AS created`, keep, keep)
		row := tx.QueryRowxContext(ctx, query, uuid.NewString(), userID, fullName, time.Now().UTC())
		if err = row.Scan(&id, &result.Created); err != nil {
			err = fmt.Errorf("ensure %s profile: %w", keep, err)
			return result, err
		}
		if keep == "teachers" {
			result.TeacherID = &id
		} else {
			result.StudentID = &id
		}
	}

	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("commit profile transaction: %w", err)
	}
	return result, nil
}
