package core

import (
	"strconv"
	"strings"

	"github.com/huangsam/recap/schema"
)

// BuildPrompt renders one section per record, in record order:
//
//	Description: {description}
//	Weight: {weight}
//	----
//
// Sections are joined with a blank line.
func BuildPrompt(records []schema.ActivityRecord) string {
	sections := make([]string, len(records))
	for i, r := range records {
		var b strings.Builder
		b.WriteString("Description: ")
		b.WriteString(r.Description)
		b.WriteString("\nWeight: ")
		b.WriteString(formatWeight(r.Weight))
		b.WriteString("\n----\n")
		sections[i] = b.String()
	}
	return strings.Join(sections, "\n")
}

// formatWeight prints the shortest representation that round-trips.
func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}
