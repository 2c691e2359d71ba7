package models

// SchoolRole selects which profile a user owns.
type SchoolRole string

const (
	SchoolRoleNone    SchoolRole = ""
	SchoolRoleTeacher SchoolRole = "teacher"
	SchoolRoleStudent SchoolRole = "student"
)
