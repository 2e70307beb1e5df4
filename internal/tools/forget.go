// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemos-ai/mnemos-mcp/internal/database"
)

// NewForgetTool creates the mnemos_forget tool definition
func NewForgetTool() mcp.Tool {
	return mcp.NewTool("mnemos_forget",
		mcp.WithDescription("Soft-delete stored memories. Forgotten memories stop appearing in recall and stats but their rows are kept. Provide either ids, or a namespace plus a metadata key/value to forget a whole batch."),
		mcp.WithArray("ids",
			mcp.Description("Memory ids to forget"),
		),
		mcp.WithString("namespace",
			mcp.Description("Namespace for metadata-based forgetting ('user' or 'global')"),
		),
		mcp.WithString("metadata_key",
			mcp.Description("Metadata attribute to match. Example: 'doc_id'"),
		),
		mcp.WithString("metadata_value",
			mcp.Description("Metadata value to match. Example: 'doc-1'"),
		),
	)
}

// ForgetHandler handles the mnemos_forget tool
func ForgetHandler(tc *ToolContext, ownerScope string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids := parseIDs(request)
		metaKey := request.GetString("metadata_key", "")
		metaValue := request.GetString("metadata_value", "")

		if len(ids) > 0 {
			n, err := tc.Memories.SoftDelete(ctx, ids)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to forget memories: %v", err)), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Forgot %d of %d memories.", n, len(ids))), nil
		}

		if metaKey != "" {
			namespace := request.GetString("namespace", database.NamespaceUser)
			if metaValue == "" {
				return mcp.NewToolResultError("metadata_value is required when metadata_key is set"), nil
			}
			n, err := tc.Memories.SoftDeleteByMetadata(ctx, namespace, metaKey, metaValue)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to forget memories: %v", err)), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Forgot %d memories where %s=%s.", n, metaKey, metaValue)), nil
		}

		return mcp.NewToolResultError("provide either 'ids' or 'metadata_key'/'metadata_value'"), nil
	}
}

// parseIDs extracts the ids array from the request arguments
func parseIDs(request mcp.CallToolRequest) []uint {
	var ids []uint
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		if rawIDs, ok := args["ids"].([]interface{}); ok {
			for _, item := range rawIDs {
				if f, ok := item.(float64); ok && f > 0 {
					ids = append(ids, uint(f))
				}
			}
		}
	}
	return ids
}
