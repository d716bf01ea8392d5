// Package parquet provides row types and writers for exporting recap activity and run
// history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/recap/schema"
	"github.com/parquet-go/parquet-go"
)

// Run maps to the recap_runs history table.
type Run struct {
	RunID     int64      `parquet:"run_id,snappy"`
	Username  string     `parquet:"username,snappy,dict"`
	StartTime time.Time  `parquet:"start_time,snappy"`
	EndTime   *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is nil for runs that never finished
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	TotalRecords  int32 `parquet:"total_records,snappy"`
	SummaryLength *int32 `parquet:"summary_length,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration of the run
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ActivityRecord maps to the recap_activity_records history table.
type ActivityRecord struct {
	RunID       int64      `parquet:"run_id,snappy"`
	Position    int32      `parquet:"position,snappy"`
	Kind        string     `parquet:"kind,snappy,dict"`
	Title       string     `parquet:"title,snappy"`
	Description string     `parquet:"description,snappy"`
	Weight      float64    `parquet:"weight,snappy"`
	ProjectID   int64      `parquet:"project_id,snappy"`
	Timestamp   *time.Time `parquet:"timestamp,optional,snappy"`
}

// Activity is one ranked row of the activity command output.
type Activity struct {
	Rank        int32      `parquet:"rank,snappy"`
	Kind        string     `parquet:"kind,snappy,dict"`
	Title       string     `parquet:"title,snappy"`
	Description string     `parquet:"description,snappy"`
	Weight      float64    `parquet:"weight,snappy"`
	Label       string     `parquet:"label,snappy,dict"`
	ProjectID   int64      `parquet:"project_id,snappy"`
	Timestamp   *time.Time `parquet:"timestamp,optional,snappy"`
}

// WriteRunsParquet writes runs to a Parquet file at outputPath.
func WriteRunsParquet(data []Run, outputPath string) error {
	if err := parquet.WriteFile(outputPath, data); err != nil {
		return fmt.Errorf("failed to write runs to %s: %w", outputPath, err)
	}
	return nil
}

// WriteActivityRecordsParquet writes stored activity records to a Parquet file at outputPath.
func WriteActivityRecordsParquet(data []ActivityRecord, outputPath string) error {
	if err := parquet.WriteFile(outputPath, data); err != nil {
		return fmt.Errorf("failed to write activity records to %s: %w", outputPath, err)
	}
	return nil
}

// WriteActivity streams ranked activity rows as a Parquet file to w.
func WriteActivity(w io.Writer, data []Activity) error {
	if err := parquet.Write(w, data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts stored runs for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			Username:      record.Username,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalRecords:  record.TotalRecords,
			SummaryLength: record.SummaryLength,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertStoredActivityRecords converts stored activity records for Parquet export.
func ConvertStoredActivityRecords(records []schema.StoredActivityRecord) []ActivityRecord {
	result := make([]ActivityRecord, len(records))
	for i, record := range records {
		result[i] = ActivityRecord{
			RunID:       record.RunID,
			Position:    record.Position,
			Kind:        record.Kind,
			Title:       record.Title,
			Description: record.Description,
			Weight:      record.Weight,
			ProjectID:   record.ProjectID,
			Timestamp:   record.Timestamp,
		}
	}
	return result
}

// ConvertActivity ranks activity records for Parquet output. labelFn maps a weight to its label.
func ConvertActivity(records []schema.ActivityRecord, labelFn func(float64) string) []Activity {
	result := make([]Activity, len(records))
	for i, record := range records {
		result[i] = Activity{
			Rank:        int32(i + 1),
			Kind:        string(record.Kind),
			Title:       record.Title,
			Description: record.Description,
			Weight:      record.Weight,
			Label:       labelFn(record.Weight),
			ProjectID:   record.ProjectID,
			Timestamp:   record.Timestamp,
		}
	}
	return result
}
