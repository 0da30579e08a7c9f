package models

// BatchResult summarises a bulk archival pass over one collection. Archived
// counts only rows actually flipped in this run, so re-running against an
// already-archived set reports zero.
type BatchResult struct {
	Archived int      `json:"archived"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// TransitionResult is returned by the period transition workflow with an
// explicit account of what was archived where, instead of swallowing per-step
// failures.
type TransitionResult struct {
	NewPeriod        *AcademicPeriod        `json:"new_period"`
	PreviousPeriodID string                 `json:"previous_period_id,omitempty"`
	Collections      map[string]BatchResult `json:"collections"`
	TotalArchived    int                    `json:"total_archived"`
	TotalFailed      int                    `json:"total_failed"`
}
