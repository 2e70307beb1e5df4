// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package recall

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mnemos-ai/mnemos-mcp/internal/database"
	"github.com/mnemos-ai/mnemos-mcp/internal/memorystore"
	"github.com/mnemos-ai/mnemos-mcp/internal/vector"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   logger.Silent,
	}

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	return db
}

func newFixture(t *testing.T) (*Searcher, *memorystore.Store, *vector.Index) {
	t.Helper()

	db := openTestDB(t)
	memories := memorystore.New(db, memorystore.Config{})
	vectors := vector.NewIndex(db)
	return NewSearcher(vectors, memories), memories, vectors
}

func storeFact(t *testing.T, memories *memorystore.Store, vectors *vector.Index, owner, content string, embedding []float32) uint {
	t.Helper()

	ctx := context.Background()
	id, err := memories.Insert(ctx, memorystore.Record{
		OwnerScope: owner,
		Content:    content,
	})
	require.NoError(t, err)
	_, err = vectors.Associate(ctx, id, embedding)
	require.NoError(t, err)
	return id
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	searcher, memories, vectors := newFixture(t)
	ctx := context.Background()

	coffee := storeFact(t, memories, vectors, "user-1", "likes coffee", []float32{1, 0, 0})
	tea := storeFact(t, memories, vectors, "user-1", "likes tea", []float32{0.9, 0.1, 0})
	hiking := storeFact(t, memories, vectors, "user-1", "goes hiking", []float32{0, 0, 1})

	results, err := searcher.Search(ctx, "user-1", []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, coffee, results[0].Memory.ID)
	assert.Equal(t, tea, results[1].Memory.ID)
	assert.Equal(t, hiking, results[2].Memory.ID)
	assert.Greater(t, results[0].Similarity, results[2].Similarity)
}

func TestSearch_LimitClampedToIndexSize(t *testing.T) {
	searcher, memories, vectors := newFixture(t)

	storeFact(t, memories, vectors, "user-1", "only fact", []float32{1, 0})

	results, err := searcher.Search(context.Background(), "user-1", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_EmptyQuery(t *testing.T) {
	searcher, _, _ := newFixture(t)

	_, err := searcher.Search(context.Background(), "user-1", nil, 5)
	assert.Error(t, err)
}

func TestSearch_EmptyScope(t *testing.T) {
	searcher, _, _ := newFixture(t)

	results, err := searcher.Search(context.Background(), "user-1", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ScopeIsolation(t *testing.T) {
	searcher, memories, vectors := newFixture(t)
	ctx := context.Background()

	mine := storeFact(t, memories, vectors, "user-1", "my fact", []float32{1, 0})
	storeFact(t, memories, vectors, "user-2", "their fact", []float32{1, 0})

	results, err := searcher.Search(ctx, "user-1", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, mine, results[0].Memory.ID)
}

func TestRebuild_DropsSoftDeleted(t *testing.T) {
	searcher, memories, vectors := newFixture(t)
	ctx := context.Background()

	keep := storeFact(t, memories, vectors, "user-1", "keep me", []float32{1, 0})
	drop := storeFact(t, memories, vectors, "user-1", "forget me", []float32{0, 1})

	// Warm the collection, then soft-delete one memory.
	results, err := searcher.Search(ctx, "user-1", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	n, err := memories.SoftDelete(ctx, []uint{drop})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	// Before the rebuild the stale vector may still match, but the memory
	// lookup filters it out.
	results, err = searcher.Search(ctx, "user-1", []float32{0, 1}, 5)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, drop, r.Memory.ID)
	}

	require.NoError(t, searcher.Rebuild(ctx, "user-1"))

	results, err = searcher.Search(ctx, "user-1", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, keep, results[0].Memory.ID)
}

func TestRebuildAll(t *testing.T) {
	searcher, memories, vectors := newFixture(t)
	ctx := context.Background()

	storeFact(t, memories, vectors, "user-1", "fact one", []float32{1, 0})
	storeFact(t, memories, vectors, "user-2", "fact two", []float32{0, 1})

	// Build both collections.
	_, err := searcher.Search(ctx, "user-1", []float32{1, 0}, 5)
	require.NoError(t, err)
	_, err = searcher.Search(ctx, "user-2", []float32{0, 1}, 5)
	require.NoError(t, err)

	storeFact(t, memories, vectors, "user-1", "fact three", []float32{0.5, 0.5})
	require.NoError(t, searcher.RebuildAll(ctx))

	results, err := searcher.Search(ctx, "user-1", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
