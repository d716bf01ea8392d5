package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// Banner lines around the summary text.
const (
	summaryBanner = "===== LINKEDIN SUMMARY ====="
	summaryFooter = "============================"
)

// WriteSummaryResult outputs the generated summary. JSON output carries the records
// the summary was built from. Every other mode prints the banner text.
func WriteSummaryResult(result *schema.SummaryResult, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.JSONOut {
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
		return nil
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeSummaryText(w, result, duration)
	}, "Wrote summary")
}

func writeSummaryText(w io.Writer, result *schema.SummaryResult, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "\n%s\n%s\n%s\n", summaryBanner, result.Summary, summaryFooter); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Generated by %s (%s) from %d records in %v\n",
		result.Provider, result.Model, len(result.Records), duration)
	return err
}
