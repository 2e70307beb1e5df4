// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemos-ai/mnemos-mcp/internal/database"
	"github.com/mnemos-ai/mnemos-mcp/internal/decoder"
	"github.com/mnemos-ai/mnemos-mcp/internal/memorystore"
)

// NewRememberTool creates the mnemos_remember tool definition
func NewRememberTool() mcp.Tool {
	return mcp.NewTool("mnemos_remember",
		mcp.WithDescription("Store a fact about the user. Duplicate facts are detected and not stored twice. Use for preferences, biographical details, and anything worth recalling in later conversations."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The fact to remember, as a short sentence"),
		),
		mcp.WithString("kind",
			mcp.Description("Category of the fact. Example: 'preference', 'biography', 'event'"),
		),
		mcp.WithString("namespace",
			mcp.Description("'user' (default) or 'global'"),
		),
		mcp.WithString("metadata",
			mcp.Description("Optional JSON object with extra attributes. Example: {\"doc_id\": \"doc-1\"}"),
		),
		mcp.WithString("source_type",
			mcp.Description("'explicit' when the user stated it (default), 'inferred' when deduced"),
		),
		mcp.WithNumber("confidence",
			mcp.Description("Confidence in the fact, 0.0-1.0"),
		),
		mcp.WithString("sensitivity",
			mcp.Description("'low' (default), 'medium', or 'high'"),
		),
		mcp.WithString("evidence",
			mcp.Description("Quote or observation the fact is based on"),
		),
	)
}

// RememberHandler handles the mnemos_remember tool
func RememberHandler(tc *ToolContext, ownerScope string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := request.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		kind := request.GetString("kind", "")
		namespace := request.GetString("namespace", database.NamespaceUser)
		sourceType := request.GetString("source_type", "")
		confidence := request.GetFloat("confidence", 1.0)
		sensitivity := request.GetString("sensitivity", "")
		evidence := request.GetString("evidence", "")

		if namespace != database.NamespaceUser && namespace != database.NamespaceGlobal {
			return mcp.NewToolResultError(fmt.Sprintf("namespace must be 'user' or 'global', got '%s'", namespace)), nil
		}
		if sensitivity != "" && !database.IsValidSensitivityLevel(sensitivity) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid sensitivity: %s", sensitivity)), nil
		}
		if sourceType != "" && sourceType != database.SourceTypeExplicit && sourceType != database.SourceTypeInferred {
			return mcp.NewToolResultError(fmt.Sprintf("invalid source_type: %s", sourceType)), nil
		}

		// Metadata arrives as model-emitted text that is frequently only
		// almost JSON; unparseable metadata is dropped, not fatal.
		var metadata map[string]interface{}
		if raw := request.GetString("metadata", ""); raw != "" {
			parsed, ok := decoder.Parse(raw)
			if !ok {
				log.Printf("remember: dropping unparseable metadata for %s", ownerScope)
			} else {
				metadata = parsed
			}
		}

		fingerprint := memorystore.Fingerprint(content)
		known, err := tc.Memories.Exists(ctx, ownerScope, namespace, fingerprint)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to check for duplicates: %v", err)), nil
		}

		id, err := tc.Memories.Insert(ctx, memorystore.Record{
			OwnerScope:  ownerScope,
			Namespace:   namespace,
			Content:     content,
			Fingerprint: fingerprint,
			Kind:        kind,
			Metadata:    metadata,
			SourceType:  sourceType,
			Confidence:  confidence,
			Sensitivity: sensitivity,
			Evidence:    evidence,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to store memory: %v", err)), nil
		}

		if known {
			return mcp.NewToolResultText(fmt.Sprintf("Already known (memory #%d); nothing new stored.", id)), nil
		}

		// Index for similarity search when an embedder is configured. An
		// embedding failure leaves the fact stored but unindexed.
		if tc.HasEmbeddings() {
			embedding, err := tc.Embedder.Embed(ctx, content)
			if err != nil {
				log.Printf("remember: embedding failed for memory %d: %v", id, err)
				return mcp.NewToolResultText(fmt.Sprintf("Stored memory #%d (semantic indexing unavailable: %v)", id, err)), nil
			}
			if _, err := tc.Vectors.Associate(ctx, id, embedding); err != nil {
				log.Printf("remember: vector association failed for memory %d: %v", id, err)
				return mcp.NewToolResultText(fmt.Sprintf("Stored memory #%d (semantic indexing failed: %v)", id, err)), nil
			}
		}

		return mcp.NewToolResultText(fmt.Sprintf("Stored memory #%d", id)), nil
	}
}
