// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/recap/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Recap MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Recap Activity Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_activity ---
	s.AddTool(mcp.NewTool("get_activity",
		mcp.WithDescription("Collect the weighted GitLab activity records of a user, most relevant first."),
		mcp.WithString("username", mcp.Description("GitLab username whose activity is collected."), mcp.Required()),
		mcp.WithString("start", mcp.Description("Start of the window (YYYY-MM-DD, ISO8601 or '2 weeks ago').")),
		mcp.WithString("end", mcp.Description("End of the window. Defaults to now.")),
		mcp.WithNumber("limit", mcp.Description("Keep only the top N records (0 keeps all).")),
	), h.handleGetActivity)

	// --- 2. Tool: build_prompt ---
	s.AddTool(mcp.NewTool("build_prompt",
		mcp.WithDescription("Build the summary prompt from a user's activity without calling a model."),
		mcp.WithString("username", mcp.Description("GitLab username."), mcp.Required()),
		mcp.WithString("start", mcp.Description("Start of the window.")),
		mcp.WithString("end", mcp.Description("End of the window.")),
		mcp.WithNumber("limit", mcp.Description("Keep only the top N records.")),
	), h.handleBuildPrompt)

	// --- 3. Tool: generate_summary ---
	s.AddTool(mcp.NewTool("generate_summary",
		mcp.WithDescription("Generate a LinkedIn-ready summary of a user's recent GitLab work."),
		mcp.WithString("username", mcp.Description("GitLab username."), mcp.Required()),
		mcp.WithString("start", mcp.Description("Start of the window.")),
		mcp.WithString("end", mcp.Description("End of the window.")),
		mcp.WithNumber("limit", mcp.Description("Keep only the top N records.")),
	), h.handleGenerateSummary)

	return s
}

// StartMCPServer starts the Recap MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
