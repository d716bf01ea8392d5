package cmd

import (
	"github.com/huangsam/recap/core"
	"github.com/spf13/cobra"
)

// summaryCmd generates the LinkedIn-ready summary.
var summaryCmd = &cobra.Command{
	Use:   "summary <username>",
	Short: "Generate a LinkedIn-ready summary of recent GitLab activity.",
	Long: `Collect a user's GitLab events, weight them by recency, enrich merged
merge requests with their descriptions and ask a language model for a short
professional summary.

Events in the window are deduplicated per project and resource. Newer activity
weighs more, so the model sees the most recent work first.

Examples:
  # Summarize the last 30 days
  GITLAB_TOKEN=... OPENAI_API_KEY=... recap summary jdoe

  # Summarize one week of work in a group with Anthropic
  recap summary jdoe --start "1 week ago" --group-id platform --llm-provider anthropic

  # Keep the summary and its records as JSON
  recap summary jdoe --output json --output-file summary.json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteSummary(rootCtx, cfg, cacheManager)
	},
}
