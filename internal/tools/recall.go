// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemos-ai/mnemos-mcp/internal/database"
)

// NewRecallTool creates the mnemos_recall tool definition
func NewRecallTool() mcp.Tool {
	return mcp.NewTool("mnemos_recall",
		mcp.WithDescription("Retrieve stored facts about the user relevant to a query. Returns the most similar memories when semantic search is available, otherwise the most recent ones."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What to look for. Example: 'food preferences'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of memories to return (default 5)"),
		),
	)
}

// RecallHandler handles the mnemos_recall tool
func RecallHandler(tc *ToolContext, ownerScope string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := request.GetInt("limit", 5)

		if tc.HasEmbeddings() {
			embedding, embErr := tc.Embedder.Embed(ctx, query)
			if embErr == nil {
				results, searchErr := tc.Searcher.Search(ctx, ownerScope, embedding, limit)
				if searchErr != nil {
					return mcp.NewToolResultError(fmt.Sprintf("similarity search failed: %v", searchErr)), nil
				}
				if len(results) == 0 {
					return mcp.NewToolResultText("No memories found."), nil
				}

				var sb strings.Builder
				fmt.Fprintf(&sb, "Found %d relevant memories:\n", len(results))
				for _, r := range results {
					writeMemoryLine(&sb, r.Memory, fmt.Sprintf("%.2f", r.Similarity))
				}
				return mcp.NewToolResultText(sb.String()), nil
			}
			// Embedding outage degrades to the recency path below.
		}

		rows, err := tc.Memories.Recent(ctx, ownerScope, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list memories: %v", err)), nil
		}
		if len(rows) == 0 {
			return mcp.NewToolResultText("No memories found."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Found %d recent memories:\n", len(rows))
		for _, row := range rows {
			writeMemoryLine(&sb, row, "")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func writeMemoryLine(sb *strings.Builder, mem database.MnemosMemory, score string) {
	fmt.Fprintf(sb, "- #%d", mem.ID)
	if mem.MemoryType != "" {
		fmt.Fprintf(sb, " [%s]", mem.MemoryType)
	}
	fmt.Fprintf(sb, " %s", mem.Content)
	if score != "" {
		fmt.Fprintf(sb, " (similarity %s)", score)
	}
	sb.WriteString("\n")
}
