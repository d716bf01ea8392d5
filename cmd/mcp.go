package cmd

import (
	"github.com/huangsam/recap/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Recap MCP server",
	Long:  `Launch an MCP server on stdio that lets AI agents collect activity and generate summaries via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// The tools suppress the run header so stdio stays clean for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
