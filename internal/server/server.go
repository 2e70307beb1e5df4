// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package server wires the tool surface into an MCP server speaking
// JSON-RPC over stdio. Logging must go to stderr; stdout carries only
// protocol frames.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/mnemos-ai/mnemos-mcp/internal/config"
	"github.com/mnemos-ai/mnemos-mcp/internal/tools"
)

// MCPServer wraps the mcp-go server with our configuration
type MCPServer struct {
	mcpServer *server.MCPServer
	config    *config.Config
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(cfg *config.Config) *MCPServer {
	mcpServer := server.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		server.WithToolCapabilities(true),
	)

	return &MCPServer{
		mcpServer: mcpServer,
		config:    cfg,
	}
}

// RegisterTools registers all MCP tools for a single owner scope. The
// process serves one conversation partner, identified by the scope key.
func (s *MCPServer) RegisterTools(toolCtx *tools.ToolContext, ownerScope string) {
	// mnemos_remember: store a deduplicated fact
	s.mcpServer.AddTool(tools.NewRememberTool(), tools.RememberHandler(toolCtx, ownerScope))

	// mnemos_recall: similarity or recency retrieval
	s.mcpServer.AddTool(tools.NewRecallTool(), tools.RecallHandler(toolCtx, ownerScope))

	// mnemos_forget: soft-delete by ids or metadata
	s.mcpServer.AddTool(tools.NewForgetTool(), tools.ForgetHandler(toolCtx, ownerScope))

	// mnemos_stats: aggregate counts over active memories
	s.mcpServer.AddTool(tools.NewStatsTool(), tools.StatsHandler(toolCtx, ownerScope))

	// mnemos_profile: profile document read/update
	s.mcpServer.AddTool(tools.NewProfileTool(), tools.ProfileHandler(toolCtx, ownerScope))

	// mnemos_goal: goal tracking
	s.mcpServer.AddTool(tools.NewGoalTool(), tools.GoalHandler(toolCtx, ownerScope))

	// mnemos_milestone: immutable journey milestones
	s.mcpServer.AddTool(tools.NewMilestoneTool(), tools.MilestoneHandler(toolCtx, ownerScope))
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *MCPServer) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// GetMCPServer returns the underlying MCP server
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
