// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemos-ai/mnemos-mcp/internal/goals"
)

// NewMilestoneTool creates the mnemos_milestone tool definition
func NewMilestoneTool() mcp.Tool {
	return mcp.NewTool("mnemos_milestone",
		mcp.WithDescription("Record or review milestones on the user's journey. Operations: 'add' appends an immutable milestone (optionally tied to a goal), 'recent' lists the latest ones."),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("'add' or 'recent'"),
		),
		mcp.WithString("action",
			mcp.Description("What happened, for add. Example: 'completed first 5k run'"),
		),
		mcp.WithString("status",
			mcp.Description("Outcome of the action, for add"),
		),
		mcp.WithString("emotion",
			mcp.Description("How the user felt about it, for add"),
		),
		mcp.WithString("description",
			mcp.Description("Longer context for the milestone, for add"),
		),
		mcp.WithNumber("goal_id",
			mcp.Description("Goal this milestone belongs to, for add"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum milestones to return, for recent (default 10)"),
		),
	)
}

// MilestoneHandler handles the mnemos_milestone tool
func MilestoneHandler(tc *ToolContext, ownerKey string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		operation, err := request.RequireString("operation")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		switch operation {
		case "add":
			action := request.GetString("action", "")
			if action == "" {
				return mcp.NewToolResultError("add requires 'action'"), nil
			}

			var goalID *uint
			if raw := request.GetInt("goal_id", 0); raw > 0 {
				id := uint(raw)
				goalID = &id
			}

			id, err := tc.Goals.AddMilestone(ctx, goals.Milestone{
				OwnerKey:    ownerKey,
				Action:      action,
				Status:      request.GetString("status", ""),
				Emotion:     request.GetString("emotion", ""),
				Description: request.GetString("description", ""),
				GoalID:      goalID,
			})
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to add milestone: %v", err)), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Milestone #%d recorded.", id)), nil

		case "recent":
			limit := request.GetInt("limit", tc.RecentLimit)
			rows, err := tc.Goals.RecentMilestones(ctx, ownerKey, limit)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to list milestones: %v", err)), nil
			}
			if len(rows) == 0 {
				return mcp.NewToolResultText("No milestones recorded yet."), nil
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "%d recent milestones:\n", len(rows))
			for _, m := range rows {
				fmt.Fprintf(&sb, "- [%s] %s", m.CreatedAt.Format("2006-01-02"), m.Action)
				if m.Emotion != "" {
					fmt.Fprintf(&sb, " (felt %s)", m.Emotion)
				}
				if m.GoalDescription != nil {
					fmt.Fprintf(&sb, " - goal: %s", *m.GoalDescription)
				}
				sb.WriteString("\n")
			}
			return mcp.NewToolResultText(sb.String()), nil

		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown operation: %s", operation)), nil
		}
	}
}
