// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig    `mapstructure:"server"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Memory     MemoryConfig    `mapstructure:"memory"`
	Cache      CacheConfig     `mapstructure:"cache"`
	Embeddings EmbeddingConfig `mapstructure:"embeddings"`
	Scheduler  SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds MCP server identity settings
type ServerConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Type        string `mapstructure:"type"` // "sqlite" or "postgres"
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// MemoryConfig holds memory store settings
type MemoryConfig struct {
	// DedupScope controls how widely identical facts are deduplicated:
	// "global", "owner", or "namespace".
	DedupScope string `mapstructure:"dedup_scope"`
	// RecentLimit is the default page size for recency listings.
	RecentLimit int `mapstructure:"recent_limit"`
}

// CacheConfig holds the in-process profile cache settings
type CacheConfig struct {
	NumCounters int64 `mapstructure:"num_counters"`
	MaxCostMB   int64 `mapstructure:"max_cost_mb"`
}

// EmbeddingConfig holds configuration for semantic search embeddings
type EmbeddingConfig struct {
	Enabled    bool   `mapstructure:"enabled"`     // Feature flag for embeddings
	Provider   string `mapstructure:"provider"`    // "openai", "azure", "local"
	BaseURL    string `mapstructure:"base_url"`    // API base URL
	Model      string `mapstructure:"model"`       // Model name (e.g., "text-embedding-3-small")
	APIKeyEnv  string `mapstructure:"api_key_env"` // Environment variable name for API key
	Dimensions int    `mapstructure:"dimensions"`  // Vector dimensions (e.g., 1536)
}

// SchedulerConfig holds background maintenance settings
type SchedulerConfig struct {
	// RebuildInterval is how often the similarity index is rebuilt, in minutes.
	RebuildInterval int `mapstructure:"rebuild_interval_minutes"`
}

// EmbeddingProviders defines valid embedding providers
const (
	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderAzure  = "azure"
	EmbeddingProviderLocal  = "local"
)

// ValidEmbeddingProviders returns all valid embedding provider values
func ValidEmbeddingProviders() []string {
	return []string{
		EmbeddingProviderOpenAI,
		EmbeddingProviderAzure,
		EmbeddingProviderLocal,
	}
}

// ValidDedupScopes returns all valid dedup scope values
func ValidDedupScopes() []string {
	return []string{"global", "owner", "namespace"}
}

// isValidType is a generic helper to check if a type is in a list of valid types
func isValidType(aType string, validTypes []string) bool {
	for _, valid := range validTypes {
		if aType == valid {
			return true
		}
	}
	return false
}

// IsValidEmbeddingProvider checks if a provider is valid
func IsValidEmbeddingProvider(provider string) bool {
	return isValidType(provider, ValidEmbeddingProviders())
}

// IsValidDedupScope checks if a dedup scope is valid
func IsValidDedupScope(scope string) bool {
	return isValidType(scope, ValidDedupScopes())
}
