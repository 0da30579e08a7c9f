package models

import "time"

// EventStatus tracks the lifecycle of a GAD event.
type EventStatus string

const (
	EventStatusPlanned   EventStatus = "PLANNED"
	EventStatusOngoing   EventStatus = "ONGOING"
	EventStatusCompleted EventStatus = "COMPLETED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// Event represents a GAD program activity (seminar, training, outreach).
type Event struct {
	ID               string      `db:"id" json:"id"`
	Title            string      `db:"title" json:"title"`
	Description      string      `db:"description" json:"description"`
	Venue            string      `db:"venue" json:"venue"`
	FocusArea        string      `db:"focus_area" json:"focus_area"`
	Status           EventStatus `db:"status" json:"status"`
	StartDate        time.Time   `db:"start_date" json:"start_date"`
	EndDate          time.Time   `db:"end_date" json:"end_date"`
	AcademicPeriodID string      `db:"academic_period_id" json:"academic_period_id"`
	IsArchived       bool        `db:"is_archived" json:"is_archived"`
	CreatedBy        string      `db:"created_by" json:"created_by"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
}

// EventFilter encapsulates allowed search parameters for listing events.
type EventFilter struct {
	Search          string
	Status          EventStatus
	FocusArea       string
	PeriodID        string
	IncludeArchived bool
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}
