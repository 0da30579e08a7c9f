package models

import "time"

// CommunityMember represents an external participant from partner communities.
type CommunityMember struct {
	ID               string    `db:"id" json:"id"`
	FullName         string    `db:"full_name" json:"full_name"`
	Gender           string    `db:"gender" json:"gender"`
	BirthDate        time.Time `db:"birth_date" json:"birth_date"`
	Barangay         string    `db:"barangay" json:"barangay"`
	Occupation       string    `db:"occupation" json:"occupation"`
	ContactNumber    string    `db:"contact_number" json:"contact_number"`
	AcademicPeriodID string    `db:"academic_period_id" json:"academic_period_id"`
	IsArchived       bool      `db:"is_archived" json:"is_archived"`
	CreatedBy        string    `db:"created_by" json:"created_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// CommunityFilter encapsulates allowed search parameters for listing community members.
type CommunityFilter struct {
	Search          string
	Gender          string
	Barangay        string
	PeriodID        string
	IncludeArchived bool
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}
