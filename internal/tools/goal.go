// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemos-ai/mnemos-mcp/internal/database"
)

// NewGoalTool creates the mnemos_goal tool definition
func NewGoalTool() mcp.Tool {
	return mcp.NewTool("mnemos_goal",
		mcp.WithDescription("Track the user's goals. Actions: 'add' records a new goal, 'list' returns active goals, 'set_status' marks a goal active, completed, or abandoned."),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("'add', 'list', or 'set_status'"),
		),
		mcp.WithString("description",
			mcp.Description("What the user wants to achieve, for add"),
		),
		mcp.WithString("goal_type",
			mcp.Description("Category of the goal. Example: 'fitness', 'career'"),
		),
		mcp.WithString("target_date",
			mcp.Description("Optional target date in YYYY-MM-DD format, for add"),
		),
		mcp.WithNumber("goal_id",
			mcp.Description("Goal id, for set_status"),
		),
		mcp.WithString("status",
			mcp.Description("'active', 'completed', or 'abandoned', for set_status"),
		),
	)
}

// GoalHandler handles the mnemos_goal tool
func GoalHandler(tc *ToolContext, ownerKey string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		action, err := request.RequireString("action")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		switch action {
		case "add":
			description := request.GetString("description", "")
			if description == "" {
				return mcp.NewToolResultError("add requires 'description'"), nil
			}
			goalType := request.GetString("goal_type", "")

			var targetDate *time.Time
			if raw := request.GetString("target_date", ""); raw != "" {
				parsed, err := time.Parse("2006-01-02", raw)
				if err != nil {
					return mcp.NewToolResultError(fmt.Sprintf("invalid target_date: %v", err)), nil
				}
				targetDate = &parsed
			}

			id, err := tc.Goals.AddGoal(ctx, ownerKey, goalType, description, targetDate)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to add goal: %v", err)), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Goal #%d recorded.", id)), nil

		case "list":
			active, err := tc.Goals.ActiveGoals(ctx, ownerKey)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to list goals: %v", err)), nil
			}
			if len(active) == 0 {
				return mcp.NewToolResultText("No active goals."), nil
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "%d active goals:\n", len(active))
			for _, g := range active {
				fmt.Fprintf(&sb, "- #%d", g.ID)
				if g.GoalType != "" {
					fmt.Fprintf(&sb, " [%s]", g.GoalType)
				}
				fmt.Fprintf(&sb, " %s", g.Description)
				if g.TargetDate != nil {
					fmt.Fprintf(&sb, " (target %s)", g.TargetDate.Format("2006-01-02"))
				}
				sb.WriteString("\n")
			}
			return mcp.NewToolResultText(sb.String()), nil

		case "set_status":
			goalID := request.GetInt("goal_id", 0)
			if goalID <= 0 {
				return mcp.NewToolResultError("set_status requires 'goal_id'"), nil
			}
			status := request.GetString("status", "")
			if !database.IsValidGoalStatus(status) {
				return mcp.NewToolResultError(fmt.Sprintf("status must be one of %v, got '%s'", database.ValidGoalStatuses(), status)), nil
			}

			found, err := tc.Goals.SetGoalStatus(ctx, uint(goalID), status)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to set goal status: %v", err)), nil
			}
			if !found {
				return mcp.NewToolResultError(fmt.Sprintf("goal #%d not found", goalID)), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Goal #%d is now %s.", goalID, status)), nil

		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown action: %s", action)), nil
		}
	}
}
