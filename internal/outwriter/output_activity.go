package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/internal/parquet"
	"github.com/huangsam/recap/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const whenFormat = "2006-01-02 15:04"

// rankedRecord is an activity record with its presentation data.
type rankedRecord struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	schema.ActivityRecord
}

// activityJSON is the JSON document of the activity command.
type activityJSON struct {
	Username  string             `json:"username"`
	Start     time.Time          `json:"start"`
	End       time.Time          `json:"end"`
	Events    int                `json:"events"`
	FromCache bool               `json:"from_cache"`
	Enrich    schema.EnrichStats `json:"enrich"`
	Records   []rankedRecord     `json:"records"`
}

// WriteActivityResults outputs activity records, dispatching based on the output format configured.
func WriteActivityResults(result *schema.ActivityResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeActivityJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeActivityCSV(w, result.Records, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteActivity(w, parquet.ConvertActivity(result.Records, contract.GetPlainLabel))
		}, "Wrote Parquet"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeActivityTable(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

func writeActivityJSON(w io.Writer, result *schema.ActivityResult) error {
	doc := activityJSON{
		Username:  result.Username,
		Start:     result.Start,
		End:       result.End,
		Events:    result.Events,
		FromCache: result.FromCache,
		Enrich:    result.Enrich,
		Records:   make([]rankedRecord, len(result.Records)),
	}
	for i, rec := range result.Records {
		doc.Records[i] = rankedRecord{Rank: i + 1, Label: contract.GetPlainLabel(rec.Weight), ActivityRecord: rec}
	}
	return writeJSON(w, doc)
}

func writeActivityCSV(w io.Writer, records []schema.ActivityRecord, fmtFloat func(float64) string) error {
	header := []string{"rank", "timestamp", "kind", "title", "description", "weight", "label", "project_id", "author"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, rec := range records {
			ts := ""
			if rec.Timestamp != nil {
				ts = rec.Timestamp.Format(contract.DateTimeFormat)
			}
			row := []string{
				strconv.Itoa(i + 1),
				ts,
				string(rec.Kind),
				rec.Title,
				rec.Description,
				fmtFloat(rec.Weight),
				contract.GetPlainLabel(rec.Weight),
				strconv.FormatInt(rec.ProjectID, 10),
				rec.Author,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeActivityTable generates and writes the human-readable table.
func writeActivityTable(w io.Writer, result *schema.ActivityResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "When", "Kind", "Title", "Weight", "Label", "Description"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
		cfg.Row.Alignment.PerColumn = []tw.Align{
			tw.AlignRight, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignLeft, tw.AlignLeft,
		}
	})

	descWidth := GetMaxTableDescriptionWidth(cfg)
	data := make([][]string, 0, len(result.Records))
	for i, rec := range result.Records {
		when := "-"
		if rec.Timestamp != nil {
			when = rec.Timestamp.Local().Format(whenFormat)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			when,
			string(rec.Kind),
			rec.Title,
			fmtFloat(rec.Weight),
			contract.GetColorLabel(rec.Weight),
			contract.TruncateText(rec.Description, descWidth),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	kinds := make([]string, 0, len(schema.AllActivityKinds))
	for _, kind := range schema.AllActivityKinds {
		n := 0
		for _, rec := range result.Records {
			if rec.Kind == kind {
				n++
			}
		}
		kinds = append(kinds, fmt.Sprintf("%s: %d", kind, n))
	}
	if _, err := fmt.Fprintf(w, "Showing %d records from %d events (%s)\n",
		len(result.Records), result.Events, strings.Join(kinds, ", ")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Enriched %d of %d merge requests (%d failed). Cache backend: %s (hit: %t)\n",
		result.Enrich.Enriched, result.Enrich.Attempted, result.Enrich.Failed, cfg.CacheBackend, result.FromCache); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Completed in %v with %d workers\n", duration, cfg.Workers)
	return err
}
