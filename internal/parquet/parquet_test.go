package parquet

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/recap/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		row     any
		columns []string
	}{
		{
			name: "runs",
			row:  new(Run),
			columns: []string{
				"run_id", "username", "start_time", "end_time", "run_duration_ms",
				"total_records", "summary_length", "config_params",
			},
		},
		{
			name: "activity records",
			row:  new(ActivityRecord),
			columns: []string{
				"run_id", "position", "kind", "title", "description", "weight", "project_id", "timestamp",
			},
		},
		{
			name: "activity",
			row:  new(Activity),
			columns: []string{
				"rank", "kind", "title", "description", "weight", "label", "project_id", "timestamp",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.row)
			require.NotNil(t, s)
			for _, col := range tt.columns {
				_, ok := s.Lookup(col)
				assert.True(t, ok, "column %s should exist", col)
			}
		})
	}
}

func TestWriteRunsRoundTrip(t *testing.T) {
	end := time.Date(2024, 5, 1, 10, 0, 2, 0, time.UTC)
	duration := int32(2000)
	summaryLength := int32(512)
	config := `{"command":"summary"}`
	records := []schema.RunRecord{
		{
			RunID:         1,
			Username:      "jdoe",
			StartTime:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			EndTime:       &end,
			RunDurationMs: &duration,
			TotalRecords:  3,
			SummaryLength: &summaryLength,
			ConfigParams:  &config,
		},
		{RunID: 2, Username: "jdoe", StartTime: time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)},
	}

	path := filepath.Join(t.TempDir(), "history.runs.parquet")
	require.NoError(t, WriteRunsParquet(ConvertRunRecords(records), path))

	rows, err := parquet.ReadFile[Run](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].RunID)
	require.NotNil(t, rows[0].RunDurationMs)
	assert.Equal(t, duration, *rows[0].RunDurationMs)
	require.NotNil(t, rows[0].ConfigParams)
	assert.Equal(t, config, *rows[0].ConfigParams)

	assert.Nil(t, rows[1].EndTime, "unfinished runs keep a null end time")
	assert.Nil(t, rows[1].SummaryLength)
}

func TestWriteActivityRecords(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stored := []schema.StoredActivityRecord{
		{RunID: 1, Position: 0, Kind: "merge", Title: "MR Merged (IID 7)", Description: "Adds retries", Weight: 1.9, ProjectID: 42, Timestamp: &ts},
		{RunID: 1, Position: 1, Kind: "note", Title: "Note", Description: "LGTM", Weight: 0.4},
	}

	path := filepath.Join(t.TempDir(), "history.activity_records.parquet")
	require.NoError(t, WriteActivityRecordsParquet(ConvertStoredActivityRecords(stored), path))

	rows, err := parquet.ReadFile[ActivityRecord](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "MR Merged (IID 7)", rows[0].Title)
	assert.Equal(t, int64(42), rows[0].ProjectID)
	require.NotNil(t, rows[0].Timestamp)
	assert.True(t, ts.Equal(*rows[0].Timestamp))
	assert.Nil(t, rows[1].Timestamp)
}

func TestWriteActivity(t *testing.T) {
	records := []schema.ActivityRecord{
		{Title: "Commit Pushed", Description: "Fix flaky test", Weight: 1.8, Kind: schema.PushKind, ProjectID: 3},
		{Title: "Note", Description: "Looks good", Weight: 0.9, Kind: schema.NoteKind},
	}
	label := func(w float64) string {
		if w >= 1 {
			return "new"
		}
		return "old"
	}

	rows := ConvertActivity(records, label)
	require.Len(t, rows, 2)
	assert.Equal(t, int32(1), rows[0].Rank)
	assert.Equal(t, int32(2), rows[1].Rank)
	assert.Equal(t, "new", rows[0].Label)
	assert.Equal(t, "old", rows[1].Label)

	var buf bytes.Buffer
	require.NoError(t, WriteActivity(&buf, rows))

	read, err := parquet.Read[Activity](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, rows, read)
}

func TestConvertEmpty(t *testing.T) {
	assert.Empty(t, ConvertRunRecords(nil))
	assert.Empty(t, ConvertStoredActivityRecords(nil))
	assert.Empty(t, ConvertActivity(nil, func(float64) string { return "" }))
}
