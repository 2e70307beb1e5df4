// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"name": "mnemos-test", "version": "0.9.0"},
		"database": {"type": "sqlite", "sqlite_path": "/tmp/mnemos-test.db"},
		"memory": {"dedup_scope": "namespace", "recent_limit": 25},
		"embeddings": {
			"enabled": true,
			"provider": "openai",
			"model": "text-embedding-3-large",
			"dimensions": 3072
		}
	}`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "mnemos-test", cfg.Server.Name)
	assert.Equal(t, "0.9.0", cfg.Server.Version)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "/tmp/mnemos-test.db", cfg.Database.SQLitePath)
	assert.Equal(t, "namespace", cfg.Memory.DedupScope)
	assert.Equal(t, 25, cfg.Memory.RecentLimit)
	assert.True(t, cfg.Embeddings.Enabled)
	assert.Equal(t, "text-embedding-3-large", cfg.Embeddings.Model)
	assert.Equal(t, 3072, cfg.Embeddings.Dimensions)
}

func TestLoadFromPath_DefaultsFill(t *testing.T) {
	path := writeConfig(t, `{"database": {"type": "sqlite", "sqlite_path": "/tmp/m.db"}}`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "mnemos", cfg.Server.Name)
	assert.Equal(t, "owner", cfg.Memory.DedupScope)
	assert.Equal(t, 10, cfg.Memory.RecentLimit)
	assert.Equal(t, int64(16), cfg.Cache.MaxCostMB)
	assert.Equal(t, 60, cfg.Scheduler.RebuildInterval)
	assert.False(t, cfg.Embeddings.Enabled)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embeddings.BaseURL)
}

func TestLoadFromPath_InvalidDatabaseType(t *testing.T) {
	path := writeConfig(t, `{"database": {"type": "mysql"}}`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.type")
}

func TestLoadFromPath_PostgresRequiresDSN(t *testing.T) {
	path := writeConfig(t, `{"database": {"type": "postgres"}}`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres_dsn")
}

func TestLoadFromPath_InvalidDedupScope(t *testing.T) {
	path := writeConfig(t, `{
		"database": {"type": "sqlite", "sqlite_path": "/tmp/m.db"},
		"memory": {"dedup_scope": "everyone"}
	}`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dedup_scope")
}

func TestLoadFromPath_EmbeddingsValidation(t *testing.T) {
	path := writeConfig(t, `{
		"database": {"type": "sqlite", "sqlite_path": "/tmp/m.db"},
		"embeddings": {"enabled": true, "provider": "cohere"}
	}`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embeddings.provider")
}

func TestLoadFromPath_InvalidScheduler(t *testing.T) {
	path := writeConfig(t, `{
		"database": {"type": "sqlite", "sqlite_path": "/tmp/m.db"},
		"scheduler": {"rebuild_interval_minutes": 0}
	}`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rebuild_interval_minutes")
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, validate(cfg))
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "owner", cfg.Memory.DedupScope)
	assert.Contains(t, cfg.Database.SQLitePath, ".mnemos")
}

func TestIsValidDedupScope(t *testing.T) {
	assert.True(t, IsValidDedupScope("global"))
	assert.True(t, IsValidDedupScope("owner"))
	assert.True(t, IsValidDedupScope("namespace"))
	assert.False(t, IsValidDedupScope(""))
	assert.False(t, IsValidDedupScope("tenant"))
}

func TestIsValidEmbeddingProvider(t *testing.T) {
	assert.True(t, IsValidEmbeddingProvider("openai"))
	assert.True(t, IsValidEmbeddingProvider("azure"))
	assert.True(t, IsValidEmbeddingProvider("local"))
	assert.False(t, IsValidEmbeddingProvider("cohere"))
}
