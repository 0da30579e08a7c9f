package models

import "time"

// GenderBreakdown tallies participants by reported gender.
type GenderBreakdown struct {
	Total  int `json:"total"`
	Male   int `json:"male"`
	Female int `json:"female"`
	Other  int `json:"other"`
}

// SystemMetrics is a lightweight instrumentation snapshot for dashboards.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	NotificationsDispatched  uint64    `json:"notifications_dispatched"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// DemographicsSnapshot aggregates participant counts for one academic period.
type DemographicsSnapshot struct {
	PeriodID     string          `json:"period_id"`
	SchoolYear   string          `json:"school_year"`
	Students     GenderBreakdown `json:"students"`
	StaffFaculty GenderBreakdown `json:"staff_faculty"`
	Community    GenderBreakdown `json:"community"`
	EventCount   int             `json:"event_count"`
	GeneratedAt  time.Time       `json:"generated_at"`
}
