package schema

import "time"

// CacheStatus represents the status of the event cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the run history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalRecords  int              `json:"total_records"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the recap_runs table.
type RunRecord struct {
	RunID         int64
	Username      string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalRecords  int32
	SummaryLength *int32
	ConfigParams  *string
}

// StoredActivityRecord represents a row from the recap_activity_records table.
type StoredActivityRecord struct {
	RunID       int64
	Position    int32
	Kind        string
	Title       string
	Description string
	Weight      float64
	ProjectID   int64
	Timestamp   *time.Time
}
