// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package memorystore provides content-addressed, deduplicating storage of
// discrete facts extracted from conversations. Rows are soft-deleted only;
// inserting the same fingerprint twice returns the original row's id.
package memorystore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mnemos-ai/mnemos-mcp/internal/database"
)

// DedupScope controls which columns participate in the fingerprint
// uniqueness constraint.
type DedupScope string

// Supported dedup scopes
const (
	// DedupScopeGlobal deduplicates across all owners and namespaces.
	DedupScopeGlobal DedupScope = "global"
	// DedupScopeOwner deduplicates per owner scope.
	DedupScopeOwner DedupScope = "owner"
	// DedupScopeNamespace deduplicates per owner scope and namespace.
	DedupScopeNamespace DedupScope = "namespace"
)

// Config holds memory store configuration
type Config struct {
	DedupScope DedupScope
}

// Store is the deduplicating fact store.
type Store struct {
	db    *gorm.DB
	scope DedupScope
}

// New creates a memory store. An empty dedup scope defaults to owner scope.
func New(db *gorm.DB, cfg Config) *Store {
	scope := cfg.DedupScope
	if scope == "" {
		scope = DedupScopeOwner
	}
	return &Store{db: db, scope: scope}
}

// Record holds the attributes of a fact to insert.
type Record struct {
	OwnerScope  string
	Namespace   string
	Content     string
	Fingerprint string // computed from Content when empty
	Kind        string
	Metadata    map[string]interface{}
	SourceType  string
	Confidence  float64
	Sensitivity string
	Evidence    string
}

// Insert stores a fact and returns its id. Inserting a record whose
// fingerprint already exists within the configured dedup scope is benign:
// the pre-existing row's id is returned and no new row is created. Any
// other storage failure is returned wrapped, with no partial row committed.
func (s *Store) Insert(ctx context.Context, rec Record) (uint, error) {
	if strings.TrimSpace(rec.Content) == "" {
		return 0, fmt.Errorf("memory content cannot be empty")
	}

	namespace := rec.Namespace
	if namespace == "" {
		namespace = database.NamespaceUser
	}
	sourceType := rec.SourceType
	if sourceType == "" {
		sourceType = database.SourceTypeExplicit
	}

	fingerprint := rec.Fingerprint
	if fingerprint == "" {
		fingerprint = Fingerprint(rec.Content)
	}

	metadataJSON := ""
	if len(rec.Metadata) > 0 {
		data, err := json.Marshal(rec.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal memory metadata: %w", err)
		}
		metadataJSON = string(data)
	}

	dedupKey := s.dedupKey(rec.OwnerScope, namespace, fingerprint)

	row := database.MnemosMemory{
		OwnerScope:   rec.OwnerScope,
		Namespace:    namespace,
		Content:      rec.Content,
		ContentHash:  fingerprint,
		DedupKey:     dedupKey,
		MemoryType:   rec.Kind,
		MetadataJSON: metadataJSON,
		SourceType:   sourceType,
		Confidence:   rec.Confidence,
		Sensitivity:  rec.Sensitivity,
		Evidence:     rec.Evidence,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedup_key"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert memory: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Lost a duplicate-fingerprint race (or replayed an identical
		// fact): read back the winner instead of surfacing an error.
		var existing database.MnemosMemory
		err := s.db.WithContext(ctx).
			Where("dedup_key = ?", dedupKey).
			First(&existing).Error
		if err != nil {
			return 0, fmt.Errorf("failed to read back duplicate memory: %w", err)
		}
		return existing.ID, nil
	}

	return row.ID, nil
}

// Exists reports whether a fact with the given fingerprint is stored within
// the configured dedup scope, regardless of its active flag.
func (s *Store) Exists(ctx context.Context, ownerScope, namespace, fingerprint string) (bool, error) {
	if namespace == "" {
		namespace = database.NamespaceUser
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&database.MnemosMemory{}).
		Where("dedup_key = ?", s.dedupKey(ownerScope, namespace, fingerprint)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check memory existence: %w", err)
	}
	return count > 0, nil
}

// Get returns a memory row by id.
func (s *Store) Get(ctx context.Context, id uint) (*database.MnemosMemory, error) {
	var row database.MnemosMemory
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load memory %d: %w", id, err)
	}
	return &row, nil
}

// Recent returns the most recently created active memories for an owner
// scope, newest first.
func (s *Store) Recent(ctx context.Context, ownerScope string, limit int) ([]database.MnemosMemory, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []database.MnemosMemory
	err := s.db.WithContext(ctx).
		Where("owner_scope = ? AND is_active = ?", ownerScope, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent memories: %w", err)
	}
	return rows, nil
}

// ActiveByIDs returns the active memory rows among the given ids.
func (s *Store) ActiveByIDs(ctx context.Context, ids []uint) ([]database.MnemosMemory, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []database.MnemosMemory
	err := s.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load memories by id: %w", err)
	}
	return rows, nil
}

// SoftDelete flips the active flag off for the given ids in one statement.
// Returns the number of rows actually deactivated, which may be less than
// requested when some ids do not exist or were already inactive.
func (s *Store) SoftDelete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).
		Model(&database.MnemosMemory{}).
		Where("id IN ? AND is_active = ?", ids, true).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to soft delete memories: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// SoftDeleteByMetadata bulk-deactivates all active rows in a namespace whose
// metadata contains the given key/value pair. Used for bulk invalidation
// tied to a removed external source, e.g. a deleted document. The select and
// the update run in one transaction.
func (s *Store) SoftDeleteByMetadata(ctx context.Context, namespace, key string, value interface{}) (int64, error) {
	var affected int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// JSON operators differ between sqlite and postgres; prefilter on
		// the serialized key and verify the value in Go.
		var candidates []database.MnemosMemory
		err := tx.
			Where("namespace = ? AND is_active = ?", namespace, true).
			Where("metadata_json LIKE ?", "%"+jsonKeyPattern(key)+"%").
			Find(&candidates).Error
		if err != nil {
			return fmt.Errorf("failed to scan namespace %s: %w", namespace, err)
		}

		var ids []uint
		for _, row := range candidates {
			if metadataMatches(row.MetadataJSON, key, value) {
				ids = append(ids, row.ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}

		result := tx.
			Model(&database.MnemosMemory{}).
			Where("id IN ?", ids).
			Update("is_active", false)
		if result.Error != nil {
			return fmt.Errorf("failed to deactivate matched memories: %w", result.Error)
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// dedupKey composes the stored uniqueness key from the fingerprint and the
// configured scope.
func (s *Store) dedupKey(ownerScope, namespace, fingerprint string) string {
	switch s.scope {
	case DedupScopeGlobal:
		return fingerprint
	case DedupScopeNamespace:
		return ownerScope + "|" + namespace + "|" + fingerprint
	default:
		return ownerScope + "|" + fingerprint
	}
}

// Fingerprint returns the deterministic hash of normalized content used as
// the dedup key: lowercase, whitespace collapsed, sha256 hex.
func Fingerprint(content string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(content)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func jsonKeyPattern(key string) string {
	data, _ := json.Marshal(key)
	return string(data)
}

func metadataMatches(metadataJSON, key string, value interface{}) bool {
	if metadataJSON == "" {
		return false
	}
	var metadata map[string]interface{}
	if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
		return false
	}
	stored, ok := metadata[key]
	if !ok {
		return false
	}
	// Normalize both sides through JSON so callers can pass plain Go values.
	storedJSON, _ := json.Marshal(stored)
	valueJSON, _ := json.Marshal(value)
	return string(storedJSON) == string(valueJSON)
}
