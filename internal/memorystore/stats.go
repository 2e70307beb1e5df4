// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memorystore

import (
	"context"
	"log"

	"gorm.io/gorm"

	"github.com/mnemos-ai/mnemos-mcp/internal/database"
)

// Stats holds aggregate counts over an owner's active memories.
type Stats struct {
	Total         int64            `json:"total"`
	ByKind        map[string]int64 `json:"by_kind"`
	BySensitivity map[string]int64 `json:"by_sensitivity"`
}

type kindCount struct {
	MemoryType string
	Count      int64
}

type sensitivityCount struct {
	Sensitivity string
	Count       int64
}

// Stats aggregates active memories for an owner scope. Aggregation only
// feeds optional context enrichment, so failures degrade to a zeroed result
// instead of propagating.
func (s *Store) Stats(ctx context.Context, ownerScope string) Stats {
	stats := Stats{
		ByKind:        make(map[string]int64),
		BySensitivity: make(map[string]int64),
	}

	base := s.db.WithContext(ctx).
		Model(&database.MnemosMemory{}).
		Where("owner_scope = ? AND is_active = ?", ownerScope, true)

	// New session per aggregate so the base conditions can be reused.
	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		log.Printf("memory stats: count failed for %s: %v", ownerScope, err)
		return Stats{ByKind: map[string]int64{}, BySensitivity: map[string]int64{}}
	}

	var kinds []kindCount
	err := base.Session(&gorm.Session{}).
		Select("memory_type, COUNT(*) as count").
		Group("memory_type").
		Scan(&kinds).Error
	if err != nil {
		log.Printf("memory stats: kind aggregation failed for %s: %v", ownerScope, err)
		return Stats{ByKind: map[string]int64{}, BySensitivity: map[string]int64{}}
	}
	for _, k := range kinds {
		stats.ByKind[k.MemoryType] = k.Count
	}

	var sensitivities []sensitivityCount
	err = base.Session(&gorm.Session{}).
		Select("sensitivity, COUNT(*) as count").
		Group("sensitivity").
		Scan(&sensitivities).Error
	if err != nil {
		log.Printf("memory stats: sensitivity aggregation failed for %s: %v", ownerScope, err)
		return Stats{ByKind: map[string]int64{}, BySensitivity: map[string]int64{}}
	}
	for _, sc := range sensitivities {
		level := sc.Sensitivity
		if level == "" {
			level = database.SensitivityLow
		}
		stats.BySensitivity[level] += sc.Count
	}

	return stats
}
