// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"github.com/mnemos-ai/mnemos-mcp/internal/embeddings"
	"github.com/mnemos-ai/mnemos-mcp/internal/goals"
	"github.com/mnemos-ai/mnemos-mcp/internal/memorystore"
	"github.com/mnemos-ai/mnemos-mcp/internal/profile"
	"github.com/mnemos-ai/mnemos-mcp/internal/recall"
	"github.com/mnemos-ai/mnemos-mcp/internal/vector"
)

// ToolContext holds shared dependencies for all tools.
// Embedder is nil when embeddings are disabled; recall then falls back to
// recency listings.
type ToolContext struct {
	Memories    *memorystore.Store
	Vectors     *vector.Index
	Profiles    *profile.Store
	Goals       *goals.Store
	Searcher    *recall.Searcher
	Embedder    embeddings.Client
	RecentLimit int
}

// NewToolContext creates a tool context over the given stores.
func NewToolContext(memories *memorystore.Store, vectors *vector.Index, profiles *profile.Store, goalStore *goals.Store, searcher *recall.Searcher) *ToolContext {
	return &ToolContext{
		Memories:    memories,
		Vectors:     vectors,
		Profiles:    profiles,
		Goals:       goalStore,
		Searcher:    searcher,
		RecentLimit: 10,
	}
}

// SetEmbedder enables semantic recall through the given embedding client.
func (tc *ToolContext) SetEmbedder(client embeddings.Client) {
	tc.Embedder = client
}

// HasEmbeddings returns true if an embedding client is configured.
func (tc *ToolContext) HasEmbeddings() bool {
	return tc.Embedder != nil
}
