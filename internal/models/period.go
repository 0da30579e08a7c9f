package models

import "time"

// PeriodType represents the type of academic period within a school year.
type PeriodType string

const (
	PeriodTypeFirstSemester  PeriodType = "FIRST_SEMESTER"
	PeriodTypeSecondSemester PeriodType = "SECOND_SEMESTER"
	PeriodTypeSummer         PeriodType = "SUMMER"
)

// KnownPeriodTypes lists every recognized period type.
var KnownPeriodTypes = []PeriodType{
	PeriodTypeFirstSemester,
	PeriodTypeSecondSemester,
	PeriodTypeSummer,
}

// Valid reports whether the period type is one of the recognized values.
func (t PeriodType) Valid() bool {
	for _, known := range KnownPeriodTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AcademicPeriod scopes which program records are current versus archived.
// At most one period is active at a time.
type AcademicPeriod struct {
	ID         string     `db:"id" json:"id"`
	SchoolYear string     `db:"school_year" json:"school_year"`
	PeriodType PeriodType `db:"period_type" json:"period_type"`
	StartDate  time.Time  `db:"start_date" json:"start_date"`
	EndDate    time.Time  `db:"end_date" json:"end_date"`
	IsActive   bool       `db:"is_active" json:"is_active"`
	CreatedBy  string     `db:"created_by" json:"created_by"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	ArchivedAt *time.Time `db:"archived_at" json:"archived_at,omitempty"`
}

// PeriodFilter defines filters supported by period list endpoints.
type PeriodFilter struct {
	SchoolYear string
	PeriodType PeriodType
	IsActive   *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// DuplicateCheck reports whether a proposed period collides with an existing one.
type DuplicateCheck struct {
	IsDuplicate bool   `json:"is_duplicate"`
	Message     string `json:"message,omitempty"`
}
