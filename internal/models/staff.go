package models

import "time"

// StaffFaculty represents an employee (teaching or non-teaching) participating
// in GAD programs.
type StaffFaculty struct {
	ID               string    `db:"id" json:"id"`
	EmployeeNumber   string    `db:"employee_number" json:"employee_number"`
	FullName         string    `db:"full_name" json:"full_name"`
	Gender           string    `db:"gender" json:"gender"`
	BirthDate        time.Time `db:"birth_date" json:"birth_date"`
	Department       string    `db:"department" json:"department"`
	Position         string    `db:"position" json:"position"`
	AcademicPeriodID string    `db:"academic_period_id" json:"academic_period_id"`
	IsArchived       bool      `db:"is_archived" json:"is_archived"`
	CreatedBy        string    `db:"created_by" json:"created_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// StaffFilter encapsulates allowed search parameters for listing staff/faculty.
type StaffFilter struct {
	Search          string
	Gender          string
	Department      string
	PeriodID        string
	IncludeArchived bool
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}
