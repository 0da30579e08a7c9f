package models

import "time"

// Student represents a learner participating in GAD programs.
type Student struct {
	ID               string    `db:"id" json:"id"`
	StudentNumber    string    `db:"student_number" json:"student_number"`
	FullName         string    `db:"full_name" json:"full_name"`
	Gender           string    `db:"gender" json:"gender"`
	BirthDate        time.Time `db:"birth_date" json:"birth_date"`
	Program          string    `db:"program" json:"program"`
	YearLevel        int       `db:"year_level" json:"year_level"`
	AcademicPeriodID string    `db:"academic_period_id" json:"academic_period_id"`
	IsArchived       bool      `db:"is_archived" json:"is_archived"`
	CreatedBy        string    `db:"created_by" json:"created_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search          string
	Gender          string
	PeriodID        string
	IncludeArchived bool
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}
