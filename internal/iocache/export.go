package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/internal/parquet"
)

// ErrNoHistory is returned when an export finds no stored runs.
var ErrNoHistory = errors.New("no run history found to export")

// ExportHistory writes the stored runs and activity records of a history store to
// <outputFile>.runs.parquet and <outputFile>.activity_records.parquet.
// Progress lines go to w.
func ExportHistory(store contract.HistoryStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run history is not enabled. Set --history-backend to export")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return ErrNoHistory
	}
	_, _ = fmt.Fprintf(w, "Exporting %d runs and %d records from %s backend...\n",
		status.TotalRuns, status.TableSizes[activityRecordsTable], status.Backend)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	records, err := store.GetAllActivityRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve activity records: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	recordsFile := outputFile + ".activity_records.parquet"
	if err := parquet.WriteActivityRecordsParquet(parquet.ConvertStoredActivityRecords(records), recordsFile); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Exported %d activity records to: %s\n", len(records), recordsFile)

	return nil
}
