// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dgraph-io/ristretto"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mnemos-ai/mnemos-mcp/internal/database"
	"github.com/mnemos-ai/mnemos-mcp/internal/decoder"
)

// Store persists per-owner profile documents. Writes are last-write-wins;
// callers that need ordering must serialize writes per owner key themselves.
type Store struct {
	db    *gorm.DB
	cache *ristretto.Cache
}

// NewStore creates a profile store without caching.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CacheConfig sizes the write-through profile cache. Zero values fall back
// to the defaults.
type CacheConfig struct {
	NumCounters int64
	MaxCostMB   int64
}

const (
	defaultCacheCounters = 10_000
	defaultCacheCostMB   = 16
)

func ristrettoConfig(cfg CacheConfig) *ristretto.Config {
	counters := cfg.NumCounters
	if counters <= 0 {
		counters = defaultCacheCounters
	}
	costMB := cfg.MaxCostMB
	if costMB <= 0 {
		costMB = defaultCacheCostMB
	}
	return &ristretto.Config{
		NumCounters: counters,
		MaxCost:     costMB << 20,
		BufferItems: 64,
	}
}

// NewStoreWithCache creates a profile store with a write-through in-process
// cache. Safe under the last-write-wins model because Save always refreshes
// the cached copy before returning.
func NewStoreWithCache(db *gorm.DB, cfg CacheConfig) (*Store, error) {
	cache, err := ristretto.NewCache(ristrettoConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create profile cache: %w", err)
	}
	return &Store{db: db, cache: cache}, nil
}

// Load returns the raw stored profile for an owner key. The boolean is
// false when no profile exists yet. Stored documents are decoded with the
// resilient decoder so a legacy near-JSON payload still loads; a payload
// that cannot be recovered at all is reported as absent rather than as an
// error, and the next Save overwrites it.
func (s *Store) Load(ctx context.Context, ownerKey string) (map[string]interface{}, bool, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ownerKey); ok {
			if raw, ok := cached.(string); ok {
				if m, ok := decoder.Parse(raw); ok {
					return m, true, nil
				}
			}
		}
	}

	var row database.MnemosProfile
	err := s.db.WithContext(ctx).
		Where("owner_key = ?", ownerKey).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load profile for %s: %w", ownerKey, err)
	}

	m, ok := decoder.Parse(row.DataJSON)
	if !ok {
		log.Printf("profile for %s is unrecoverable; treating as absent", ownerKey)
		return nil, false, nil
	}

	if s.cache != nil {
		s.cache.Set(ownerKey, row.DataJSON, int64(len(row.DataJSON)))
	}

	return m, true, nil
}

// Save upserts the profile document for an owner key, refreshing the update
// timestamp. Insert if absent, otherwise overwrite.
func (s *Store) Save(ctx context.Context, ownerKey string, profile map[string]interface{}) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile for %s: %w", ownerKey, err)
	}

	row := database.MnemosProfile{
		OwnerKey:  ownerKey,
		DataJSON:  string(data),
		UpdatedAt: time.Now(),
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data_json", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save profile for %s: %w", ownerKey, err)
	}

	if s.cache != nil {
		s.cache.Set(ownerKey, string(data), int64(len(data)))
		s.cache.Wait()
	}

	return nil
}

// LoadComplete loads the stored profile and migrates it to the current
// schema in one step. A missing profile yields a fresh default profile.
func (s *Store) LoadComplete(ctx context.Context, ownerKey string) (map[string]interface{}, error) {
	raw, _, err := s.Load(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	return EnsureComplete(raw), nil
}
