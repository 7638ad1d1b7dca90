package storage

import "time"

// Run records one finished comparison for the history view. Only
// aggregate numbers are stored: no article names, codes or amounts, so
// the history stays free of commercially sensitive line data.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`

	SourceLabels []string `json:"source_labels"`
	TargetLabels []string `json:"target_labels"`

	SourceRows int `json:"source_rows"`
	TargetRows int `json:"target_rows"`
	ResultRows int `json:"result_rows"`

	StatusCounts map[string]int `json:"status_counts"`

	ToleranceNetAmount float64 `json:"tolerance_net_amount"`
	TolerancePrice     float64 `json:"tolerance_price"`

	WarningCount int `json:"warning_count"`
}

// Stats summarizes the run history.
type Stats struct {
	TotalRuns      int        `json:"total_runs"`
	TotalResultRow int        `json:"total_result_rows"`
	LastRunAt      *time.Time `json:"last_run_at"`
}
