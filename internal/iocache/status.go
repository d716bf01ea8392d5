package iocache

import (
	"fmt"
	"io"
	"sort"

	"github.com/huangsam/recap/schema"
	"github.com/olekukonko/tablewriter"
)

const statusTimeFormat = "2006-01-02 15:04:05"

// PrintCacheStatus writes event cache status information as a two-column table.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus) error {
	rows := [][]string{
		{"Backend", status.Backend},
		{"Connected", fmt.Sprintf("%t", status.Connected)},
	}
	if status.Connected {
		rows = append(rows, []string{"Total Entries", fmt.Sprintf("%d", status.TotalEntries)})
		if status.TotalEntries > 0 {
			rows = append(rows,
				[]string{"Last Entry", status.LastEntryTime.Format(statusTimeFormat)},
				[]string{"Oldest Entry", status.OldestEntryTime.Format(statusTimeFormat)},
			)
		}
		rows = append(rows, []string{"Table Size", fmt.Sprintf("%d bytes", status.TableSizeBytes)})
	}
	return renderStatus(w, "Event Cache", rows)
}

// PrintHistoryStatus writes run history status information as a two-column table.
func PrintHistoryStatus(w io.Writer, status schema.HistoryStatus) error {
	rows := [][]string{
		{"Backend", status.Backend},
		{"Connected", fmt.Sprintf("%t", status.Connected)},
	}
	if status.Connected {
		rows = append(rows, []string{"Total Runs", fmt.Sprintf("%d", status.TotalRuns)})
		if status.TotalRuns > 0 {
			rows = append(rows,
				[]string{"Last Run ID", fmt.Sprintf("%d", status.LastRunID)},
				[]string{"Last Run", status.LastRunTime.Format(statusTimeFormat)},
				[]string{"Oldest Run", status.OldestRunTime.Format(statusTimeFormat)},
				[]string{"Total Records", fmt.Sprintf("%d", status.TotalRecords)},
			)
		}
		tables := make([]string, 0, len(status.TableSizes))
		for table := range status.TableSizes {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		for _, table := range tables {
			rows = append(rows, []string{table, fmt.Sprintf("%d rows", status.TableSizes[table])})
		}
	}
	return renderStatus(w, "Run History", rows)
}

func renderStatus(w io.Writer, title string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{title, "Value"})
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("error adding status rows: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("error rendering status table: %w", err)
	}
	return nil
}
