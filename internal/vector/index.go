// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package vector maintains the bookkeeping between memories and entries in
// the nearest-neighbor index. Vector rows and mapping rows are committed as
// one atomic unit; an orphaned vector or a dangling mapping can never exist.
package vector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnemos-ai/mnemos-mcp/internal/database"
)

// Index manages vector/memory associations.
type Index struct {
	db *gorm.DB
}

// NewIndex creates a vector association index over the given database.
func NewIndex(db *gorm.DB) *Index {
	return &Index{db: db}
}

// Associate stores the embedding under a fresh index-local id and links it
// to the memory row, committing both writes in one transaction. The memory
// row must already exist. Returns the memory id on success.
func (i *Index) Associate(ctx context.Context, memoryID uint, embedding []float32) (uint, error) {
	if len(embedding) == 0 {
		return 0, fmt.Errorf("embedding cannot be empty")
	}

	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&database.MnemosMemory{}).Where("id = ?", memoryID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to verify memory %d: %w", memoryID, err)
		}
		if count == 0 {
			return fmt.Errorf("memory %d does not exist", memoryID)
		}

		vec := database.MnemosVector{
			VectorID:   uuid.NewString(),
			Embedding:  Float32SliceToBlob(embedding),
			Dimensions: len(embedding),
			CreatedAt:  time.Now(),
		}
		if err := tx.Create(&vec).Error; err != nil {
			return fmt.Errorf("failed to insert vector: %w", err)
		}

		mapping := database.MnemosVectorMemoryMap{
			VectorID: vec.VectorID,
			MemoryID: memoryID,
		}
		if err := tx.Create(&mapping).Error; err != nil {
			return fmt.Errorf("failed to insert vector mapping: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return memoryID, nil
}

// Entry pairs an index-local vector id with its embedding and the memory it
// belongs to.
type Entry struct {
	VectorID  string
	MemoryID  uint
	Embedding []float32
}

// ActiveEntries returns every vector entry whose memory row is still active,
// optionally filtered by owner scope. Consumed by similarity search to
// translate matched vector ids back to memory ids.
func (i *Index) ActiveEntries(ctx context.Context, ownerScope string) ([]Entry, error) {
	type row struct {
		VectorID  string
		MemoryID  uint
		Embedding []byte
	}

	query := i.db.WithContext(ctx).
		Table("mnemos_vector_memory_map").
		Select("mnemos_vector_memory_map.vector_id, mnemos_vector_memory_map.memory_id, mnemos_vectors.embedding").
		Joins("JOIN mnemos_vectors ON mnemos_vectors.vector_id = mnemos_vector_memory_map.vector_id").
		Joins("JOIN mnemos_memories ON mnemos_memories.id = mnemos_vector_memory_map.memory_id").
		Where("mnemos_memories.is_active = ?", true)
	if ownerScope != "" {
		query = query.Where("mnemos_memories.owner_scope = ?", ownerScope)
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load vector entries: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, Entry{
			VectorID:  r.VectorID,
			MemoryID:  r.MemoryID,
			Embedding: BlobToFloat32Slice(r.Embedding),
		})
	}
	return entries, nil
}

// MemoryID translates an index-local vector id back to its memory id.
func (i *Index) MemoryID(ctx context.Context, vectorID string) (uint, error) {
	var mapping database.MnemosVectorMemoryMap
	err := i.db.WithContext(ctx).
		Where("vector_id = ?", vectorID).
		First(&mapping).Error
	if err != nil {
		return 0, fmt.Errorf("failed to resolve vector %s: %w", vectorID, err)
	}
	return mapping.MemoryID, nil
}
