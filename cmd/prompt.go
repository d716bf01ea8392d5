package cmd

import (
	"github.com/huangsam/recap/core"
	"github.com/spf13/cobra"
)

// promptCmd prints the prompt without calling a model.
var promptCmd = &cobra.Command{
	Use:   "prompt <username>",
	Short: "Print the prompt the summary command would send.",
	Long: `Build the summary prompt from a user's activity and print it. No model is
called, so no API key is needed.

Examples:
  # Inspect the prompt for the last two weeks
  recap prompt jdoe --start "2 weeks ago"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecutePrompt(rootCtx, cfg, cacheManager)
	},
}
