// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigDir is the default configuration directory
	DefaultConfigDir = ".mnemos/configs"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.json"
)

// Load reads configuration from ~/.mnemos/configs/config.json
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(configPath)

	// Set defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use defaults
			return loadFromDefaults(v)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromPath loads configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.name", "mnemos")
	v.SetDefault("server.version", "1.0.0")

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	homeDir, _ := os.UserHomeDir()
	v.SetDefault("database.sqlite_path", filepath.Join(homeDir, ".mnemos/db/mnemos.db"))

	// Memory defaults
	v.SetDefault("memory.dedup_scope", "owner")
	v.SetDefault("memory.recent_limit", 10)

	// Cache defaults
	v.SetDefault("cache.num_counters", 10_000)
	v.SetDefault("cache.max_cost_mb", 16)

	// Embedding defaults
	v.SetDefault("embeddings.enabled", false)
	v.SetDefault("embeddings.provider", EmbeddingProviderOpenAI)
	v.SetDefault("embeddings.base_url", "https://api.openai.com/v1")
	v.SetDefault("embeddings.model", "text-embedding-3-small")
	v.SetDefault("embeddings.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("embeddings.dimensions", 1536)

	// Scheduler defaults
	v.SetDefault("scheduler.rebuild_interval_minutes", 60)
}

// loadFromDefaults creates a config from default values
func loadFromDefaults(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	return &cfg, nil
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	// Validate database type
	if cfg.Database.Type != "sqlite" && cfg.Database.Type != "postgres" {
		return fmt.Errorf("database.type must be 'sqlite' or 'postgres', got '%s'", cfg.Database.Type)
	}

	// Validate database connection info
	if cfg.Database.Type == "sqlite" && cfg.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required when type is 'sqlite'")
	}
	if cfg.Database.Type == "postgres" && cfg.Database.PostgresDSN == "" {
		return fmt.Errorf("database.postgres_dsn is required when type is 'postgres'")
	}

	// Validate memory settings
	if cfg.Memory.DedupScope != "" && !IsValidDedupScope(cfg.Memory.DedupScope) {
		return fmt.Errorf("memory.dedup_scope must be one of %v, got '%s'", ValidDedupScopes(), cfg.Memory.DedupScope)
	}
	if cfg.Memory.RecentLimit < 1 {
		return fmt.Errorf("memory.recent_limit must be at least 1, got %d", cfg.Memory.RecentLimit)
	}

	// Validate cache settings
	if cfg.Cache.NumCounters < 1 {
		return fmt.Errorf("cache.num_counters must be at least 1, got %d", cfg.Cache.NumCounters)
	}
	if cfg.Cache.MaxCostMB < 1 {
		return fmt.Errorf("cache.max_cost_mb must be at least 1, got %d", cfg.Cache.MaxCostMB)
	}

	// Validate embedding settings only when the feature is on
	if cfg.Embeddings.Enabled {
		if !IsValidEmbeddingProvider(cfg.Embeddings.Provider) {
			return fmt.Errorf("embeddings.provider must be one of %v, got '%s'", ValidEmbeddingProviders(), cfg.Embeddings.Provider)
		}
		if cfg.Embeddings.BaseURL == "" {
			return fmt.Errorf("embeddings.base_url is required when embeddings are enabled")
		}
		if cfg.Embeddings.Model == "" {
			return fmt.Errorf("embeddings.model is required when embeddings are enabled")
		}
		if cfg.Embeddings.Dimensions < 1 {
			return fmt.Errorf("embeddings.dimensions must be at least 1, got %d", cfg.Embeddings.Dimensions)
		}
	}

	// Validate scheduler settings
	if cfg.Scheduler.RebuildInterval < 1 {
		return fmt.Errorf("scheduler.rebuild_interval_minutes must be at least 1, got %d", cfg.Scheduler.RebuildInterval)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Server: ServerConfig{
			Name:    "mnemos",
			Version: "1.0.0",
		},
		Database: DatabaseConfig{
			Type:       "sqlite",
			SQLitePath: filepath.Join(homeDir, ".mnemos/db/mnemos.db"),
		},
		Memory: MemoryConfig{
			DedupScope:  "owner",
			RecentLimit: 10,
		},
		Cache: CacheConfig{
			NumCounters: 10_000,
			MaxCostMB:   16,
		},
		Embeddings: EmbeddingConfig{
			Enabled:    false,
			Provider:   EmbeddingProviderOpenAI,
			BaseURL:    "https://api.openai.com/v1",
			Model:      "text-embedding-3-small",
			APIKeyEnv:  "OPENAI_API_KEY",
			Dimensions: 1536,
		},
		Scheduler: SchedulerConfig{
			RebuildInterval: 60,
		},
	}
}
