// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemos-ai/mnemos-mcp/internal/localization"
	"github.com/mnemos-ai/mnemos-mcp/internal/profile"
)

// NewProfileTool creates the mnemos_profile tool definition
func NewProfileTool() mcp.Tool {
	return mcp.NewTool("mnemos_profile",
		mcp.WithDescription("Read or update the user's profile document. Actions: 'get' returns the complete profile, 'set_location' updates localization (explicit country_code wins over passive language_tag hints), 'log_event' appends to the evolution timeline."),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("'get', 'set_location', or 'log_event'"),
		),
		mcp.WithString("country_code",
			mcp.Description("ISO country code the user stated, for set_location. Example: 'CO'"),
		),
		mcp.WithString("region",
			mcp.Description("Free-form region name accompanying country_code"),
		),
		mcp.WithString("language_tag",
			mcp.Description("BCP 47 tag observed from the conversation, for set_location. Example: 'es-MX'"),
		),
		mcp.WithString("event",
			mcp.Description("Event text, for log_event"),
		),
		mcp.WithString("category",
			mcp.Description("Event category, for log_event. 'milestone' also bumps the milestone count."),
		),
	)
}

// ProfileHandler handles the mnemos_profile tool
func ProfileHandler(tc *ToolContext, ownerKey string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		action, err := request.RequireString("action")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		switch action {
		case "get":
			p, err := tc.Profiles.LoadComplete(ctx, ownerKey)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to load profile: %v", err)), nil
			}
			out, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to render profile: %v", err)), nil
			}
			return mcp.NewToolResultText(string(out)), nil

		case "set_location":
			countryCode := request.GetString("country_code", "")
			region := request.GetString("region", "")
			langTag := request.GetString("language_tag", "")
			if countryCode == "" && langTag == "" {
				return mcp.NewToolResultError("set_location requires country_code or language_tag"), nil
			}

			p, err := tc.Profiles.LoadComplete(ctx, ownerKey)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to load profile: %v", err)), nil
			}

			var msg string
			if countryCode != "" {
				localization.UpdateExplicit(p, countryCode, region)
				msg = fmt.Sprintf("Location set to %s (user confirmed).", countryCode)
			} else {
				if localization.UpdatePassive(p, langTag) {
					msg = fmt.Sprintf("Localization updated from language tag %s.", langTag)
				} else {
					msg = "Localization unchanged (already confirmed by the user or no new signal)."
				}
			}

			if err := tc.Profiles.Save(ctx, ownerKey, p); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to save profile: %v", err)), nil
			}
			return mcp.NewToolResultText(msg), nil

		case "log_event":
			event := request.GetString("event", "")
			if event == "" {
				return mcp.NewToolResultError("log_event requires 'event'"), nil
			}
			category := request.GetString("category", "")

			p, err := tc.Profiles.LoadComplete(ctx, ownerKey)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to load profile: %v", err)), nil
			}

			profile.AppendEvolution(p, time.Now().Format("2006-01-02"), event, category)

			if err := tc.Profiles.Save(ctx, ownerKey, p); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to save profile: %v", err)), nil
			}
			return mcp.NewToolResultText("Event recorded."), nil

		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown action: %s", action)), nil
		}
	}
}
