package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Recency label constants.
const (
	FreshValue  = "Fresh"  // within the last 6 hours
	RecentValue = "Recent" // within the last 12 hours
	AgingValue  = "Aging"  // within the last day
	StaleValue  = "Stale"  // older than a day
)

// Color variables for console output.
var (
	FreshColor  = color.New(color.FgGreen, color.Bold)
	RecentColor = color.New(color.FgCyan, color.Bold)
	AgingColor  = color.New(color.FgYellow)
	StaleColor  = color.New(color.FgHiBlack)
)

// GetPlainLabel returns a plain text label describing how recent an activity
// is based on its weight. This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(weight float64) string {
	switch {
	case weight >= 1.75:
		return FreshValue
	case weight >= 1.5:
		return RecentValue
	case weight >= 1.0:
		return AgingValue
	default:
		return StaleValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(weight float64) string {
	text := GetPlainLabel(weight)

	switch text {
	case FreshValue:
		return FreshColor.Sprint(text)
	case RecentValue:
		return RecentColor.Sprint(text)
	case AgingValue:
		return AgingColor.Sprint(text)
	default:
		return StaleColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the event cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".recap_cache.db"
	}
	return filepath.Join(homeDir, ".recap_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".recap_history.db"
	}
	return filepath.Join(homeDir, ".recap_history.db")
}

// TruncateText shortens text to maxWidth runes with an ellipsis suffix.
// Newlines are flattened so table cells stay on one line.
// Requires maxWidth > 3 to leave space for the "..." suffix.
func TruncateText(text string, maxWidth int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
