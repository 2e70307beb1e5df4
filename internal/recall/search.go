// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package recall answers similarity queries over stored memories. It keeps
// an in-process nearest-neighbor index fed from the vector table and
// translates matched vector ids back to memory ids through the mapping
// table only, as the index itself knows nothing about memories.
package recall

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/mnemos-ai/mnemos-mcp/internal/database"
	"github.com/mnemos-ai/mnemos-mcp/internal/memorystore"
	"github.com/mnemos-ai/mnemos-mcp/internal/vector"
)

// Searcher maintains per-owner collections in an embedded vector database.
type Searcher struct {
	db       *chromem.DB
	vectors  *vector.Index
	memories *memorystore.Store

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

// NewSearcher creates a similarity searcher over the given stores.
func NewSearcher(vectors *vector.Index, memories *memorystore.Store) *Searcher {
	return &Searcher{
		db:          chromem.NewDB(),
		vectors:     vectors,
		memories:    memories,
		collections: make(map[string]*chromem.Collection),
	}
}

// Rebuild reloads an owner's collection from the vector and mapping tables.
// Soft-deleted memories drop out of the index on rebuild.
func (s *Searcher) Rebuild(ctx context.Context, ownerScope string) error {
	entries, err := s.vectors.ActiveEntries(ctx, ownerScope)
	if err != nil {
		return fmt.Errorf("failed to load entries for %s: %w", ownerScope, err)
	}

	name := collectionName(ownerScope)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to reset collection %s: %w", name, err)
	}
	// No embedding func: every vector is precomputed upstream.
	col, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	if len(entries) > 0 {
		docs := make([]chromem.Document, 0, len(entries))
		for _, e := range entries {
			docs = append(docs, chromem.Document{
				ID:        e.VectorID,
				Embedding: e.Embedding,
			})
		}
		if err := col.AddDocuments(ctx, docs, 1); err != nil {
			return fmt.Errorf("failed to index entries for %s: %w", ownerScope, err)
		}
	}

	s.collections[ownerScope] = col
	return nil
}

// RebuildAll refreshes every collection built so far.
func (s *Searcher) RebuildAll(ctx context.Context) error {
	s.mu.RLock()
	scopes := make([]string, 0, len(s.collections))
	for scope := range s.collections {
		scopes = append(scopes, scope)
	}
	s.mu.RUnlock()

	for _, scope := range scopes {
		if err := s.Rebuild(ctx, scope); err != nil {
			return err
		}
	}
	return nil
}

// Result is a memory matched by similarity search.
type Result struct {
	Memory     database.MnemosMemory
	Similarity float32
}

// Search returns up to limit active memories ranked by cosine similarity to
// the query vector. The owner's collection is built lazily on first use.
func (s *Searcher) Search(ctx context.Context, ownerScope string, query []float32, limit int) ([]Result, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	col, ok := s.collections[ownerScope]
	s.mu.RUnlock()
	if !ok {
		if err := s.Rebuild(ctx, ownerScope); err != nil {
			return nil, err
		}
		s.mu.RLock()
		col = s.collections[ownerScope]
		s.mu.RUnlock()
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	matches, err := col.QueryEmbedding(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		// The collection only knows vector ids; the mapping table is the
		// single source of truth for translation.
		memoryID, err := s.vectors.MemoryID(ctx, m.ID)
		if err != nil {
			return nil, err
		}

		rows, err := s.memories.ActiveByIDs(ctx, []uint{memoryID})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			// Soft-deleted since the last rebuild; skip.
			continue
		}

		results = append(results, Result{
			Memory:     rows[0],
			Similarity: m.Similarity,
		})
	}

	return results, nil
}

func collectionName(ownerScope string) string {
	if ownerScope == "" {
		return "scope-global"
	}
	return "scope-" + ownerScope
}
