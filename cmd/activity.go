package cmd

import (
	"github.com/huangsam/recap/core"
	"github.com/spf13/cobra"
)

// activityCmd lists the weighted activity records.
var activityCmd = &cobra.Command{
	Use:   "activity <username>",
	Short: "Show the weighted activity records of a GitLab user.",
	Long: `Collect, weight and enrich a user's GitLab events without calling a model.

Each record is a merge request, a commit push or a note. Records are sorted
newest first and labeled by recency (Fresh, Recent, Aging, Stale).

Examples:
  # Show the last 30 days as a table
  recap activity jdoe

  # Export the top 50 records to CSV
  recap activity jdoe --limit 50 --output csv --output-file activity.csv

  # Write Parquet for DuckDB or pandas
  recap activity jdoe --output parquet --output-file activity.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteActivity(rootCtx, cfg, cacheManager)
	},
}
