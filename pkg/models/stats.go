package models

// SyncStats summarizes one reconciliation cycle.
type SyncStats struct {
	ProcessedPulls   int  `json:"processed_prs"`
	ProcessedIssues  int  `json:"processed_issues"`
	NewPulls         int  `json:"total_new_prs"`
	NewIssues        int  `json:"total_new_issues"`
	FullClosureCheck bool `json:"full_closure_check"`
	DurationMs       int  `json:"duration_ms"`
}

// BatchStats summarizes one full batch re-clustering run.
type BatchStats struct {
	TotalRecords int `json:"total_records"`
	Clusters     int `json:"clusters"`
	Largest      int `json:"largest"`
	DurationMs   int `json:"duration_ms"`
}
