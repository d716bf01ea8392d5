package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// Table names for run history.
const (
	runsTable            = "recap_runs"
	activityRecordsTable = "recap_activity_records"
)

// HistoryStoreImpl implements the HistoryStore interface.
// Times are stored as unix milliseconds on every backend.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore migrates the history schema to the latest version and opens the store.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	if _, err := MigrateHistory(backend, connStr, -1); err != nil {
		return nil, err
	}

	db, err := openDB(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("run history: %w", err)
	}
	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

func (hs *HistoryStoreImpl) table(name string) string {
	return dialect(hs.backend).quote(name)
}

// BeginRun creates a new run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(username string, startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (username, started_at_ms, config_params) VALUES (?, ?, ?)`, hs.table(runsTable))
	args := []any{username, startTime.UnixMilli(), string(configJSON)}

	var runID int64
	if hs.backend == schema.PostgreSQLBackend {
		err = hs.db.QueryRow(dialect(hs.backend).rebind(query)+" RETURNING run_id", args...).Scan(&runID)
	} else {
		var res sql.Result
		if res, err = hs.db.Exec(query, args...); err == nil {
			runID, err = res.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, totalRecords int, summaryLength int) error {
	if hs.db == nil {
		return nil
	}
	d := dialect(hs.backend)

	var startedAt int64
	query := d.rebind(fmt.Sprintf(`SELECT started_at_ms FROM %s WHERE run_id = ?`, hs.table(runsTable)))
	if err := hs.db.QueryRow(query, runID).Scan(&startedAt); err != nil {
		return fmt.Errorf("failed to get start time for run %d: %w", runID, err)
	}

	endedAt := endTime.UnixMilli()
	update := d.rebind(fmt.Sprintf(
		`UPDATE %s SET ended_at_ms = ?, run_duration_ms = ?, total_records = ?, summary_length = ? WHERE run_id = ?`,
		hs.table(runsTable)))
	if _, err := hs.db.Exec(update, endedAt, endedAt-startedAt, totalRecords, summaryLength, runID); err != nil {
		return fmt.Errorf("failed to update run %d: %w", runID, err)
	}
	return nil
}

// RecordActivity stores the records of a run in output order.
func (hs *HistoryStoreImpl) RecordActivity(runID int64, records []schema.ActivityRecord) error {
	if hs.db == nil || len(records) == 0 {
		return nil
	}

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := dialect(hs.backend).rebind(fmt.Sprintf(`INSERT INTO %s
		(run_id, record_index, kind, title, description, weight, project_id, occurred_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, hs.table(activityRecordsTable)))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare activity insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, rec := range records {
		var occurredAt *int64
		if rec.Timestamp != nil {
			ms := rec.Timestamp.UnixMilli()
			occurredAt = &ms
		}
		if _, err := stmt.Exec(runID, i, string(rec.Kind), rec.Title, rec.Description, rec.Weight, rec.ProjectID, occurredAt); err != nil {
			return fmt.Errorf("failed to insert activity record %d of run %d: %w", i, runID, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.db == nil {
		return status, nil
	}

	for _, table := range []string{runsTable, activityRecordsTable} {
		var count int64
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", hs.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRuns = int(status.TableSizes[runsTable])
	status.TotalRecords = int(status.TableSizes[activityRecordsTable])
	if status.TotalRuns == 0 {
		return status, nil
	}

	var lastStarted, oldestStarted int64
	row := hs.db.QueryRow(fmt.Sprintf("SELECT run_id, started_at_ms FROM %s ORDER BY run_id DESC LIMIT 1", hs.table(runsTable)))
	if err := row.Scan(&status.LastRunID, &lastStarted); err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}
	row = hs.db.QueryRow(fmt.Sprintf("SELECT started_at_ms FROM %s ORDER BY run_id ASC LIMIT 1", hs.table(runsTable)))
	if err := row.Scan(&oldestStarted); err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	status.LastRunTime = time.UnixMilli(lastStarted)
	status.OldestRunTime = time.UnixMilli(oldestStarted)

	return status, nil
}

// GetAllRuns retrieves all runs ordered by ID.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, username, started_at_ms, ended_at_ms, run_duration_ms,
		total_records, summary_length, config_params FROM %s ORDER BY run_id`, hs.table(runsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var rec schema.RunRecord
		var startedAt int64
		var endedAt sql.NullInt64
		if err := rows.Scan(&rec.RunID, &rec.Username, &startedAt, &endedAt, &rec.RunDurationMs,
			&rec.TotalRecords, &rec.SummaryLength, &rec.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.StartTime = time.UnixMilli(startedAt)
		if endedAt.Valid {
			t := time.UnixMilli(endedAt.Int64)
			rec.EndTime = &t
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllActivityRecords retrieves all stored records ordered by run and output position.
func (hs *HistoryStoreImpl) GetAllActivityRecords() ([]schema.StoredActivityRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, record_index, kind, title, description, weight, project_id, occurred_at_ms
		FROM %s ORDER BY run_id, record_index`, hs.table(activityRecordsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.StoredActivityRecord
	for rows.Next() {
		var rec schema.StoredActivityRecord
		var occurredAt sql.NullInt64
		if err := rows.Scan(&rec.RunID, &rec.Position, &rec.Kind, &rec.Title, &rec.Description,
			&rec.Weight, &rec.ProjectID, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity record: %w", err)
		}
		if occurredAt.Valid {
			t := time.UnixMilli(occurredAt.Int64)
			rec.Timestamp = &t
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity records: %w", err)
	}
	return results, nil
}
