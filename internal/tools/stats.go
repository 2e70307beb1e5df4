// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// NewStatsTool creates the mnemos_stats tool definition
func NewStatsTool() mcp.Tool {
	return mcp.NewTool("mnemos_stats",
		mcp.WithDescription("Summarize what is stored about the user: total active memories and breakdowns by kind and sensitivity."),
	)
}

// StatsHandler handles the mnemos_stats tool
func StatsHandler(tc *ToolContext, ownerScope string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats := tc.Memories.Stats(ctx, ownerScope)

		out, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to render stats: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
