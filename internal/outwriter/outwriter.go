// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteActivity prints weighted activity records using the configured output format.
func (ow *OutWriter) WriteActivity(result *schema.ActivityResult, cfg *contract.Config, duration time.Duration) error {
	return WriteActivityResults(result, cfg, duration)
}

// WriteSummary prints the generated summary using the configured output format.
func (ow *OutWriter) WriteSummary(result *schema.SummaryResult, cfg *contract.Config, duration time.Duration) error {
	return WriteSummaryResult(result, cfg, duration)
}

// WritePrompt prints the prompt that would be sent to the model.
func (ow *OutWriter) WritePrompt(prompt string, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, prompt)
		return err
	}, "Wrote prompt")
}

// LogRunHeader prints a concise 2-line header for a run to stderr, so that
// machine-readable output on stdout stays clean.
func LogRunHeader(cfg *contract.Config) {
	group := ""
	if cfg.GroupID != "" {
		group = fmt.Sprintf(" (Group: %s)", cfg.GroupID)
	}
	_, _ = fmt.Fprintf(os.Stderr, "🔎 User: %s @ %s%s\n", cfg.Username, cfg.GitLabURL, group)
	_, _ = fmt.Fprintf(os.Stderr, "📅 Range: %s → %s\n",
		cfg.StartTime.Format(contract.DateTimeFormat), cfg.EndTime.Format(contract.DateTimeFormat))
}

// GetMaxTableDescriptionWidth calculates the maximum width for descriptions in table output
// based on terminal width.
func GetMaxTableDescriptionWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detected, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detected <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detected
		}
	}

	// Rank + When + Kind + Title + Weight + Label, with borders and padding
	const fixedWidth = 95

	available := termWidth - fixedWidth
	if available < 20 {
		return 20
	}
	if available > 80 {
		return 80
	}
	return available
}
