// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/user"

	"gorm.io/gorm/logger"

	"github.com/mnemos-ai/mnemos-mcp/internal/config"
	"github.com/mnemos-ai/mnemos-mcp/internal/database"
	"github.com/mnemos-ai/mnemos-mcp/internal/embeddings"
	"github.com/mnemos-ai/mnemos-mcp/internal/goals"
	"github.com/mnemos-ai/mnemos-mcp/internal/memorystore"
	"github.com/mnemos-ai/mnemos-mcp/internal/profile"
	"github.com/mnemos-ai/mnemos-mcp/internal/recall"
	"github.com/mnemos-ai/mnemos-mcp/internal/server"
	"github.com/mnemos-ai/mnemos-mcp/internal/tools"
	"github.com/mnemos-ai/mnemos-mcp/internal/vector"
	"github.com/mnemos-ai/mnemos-mcp/pkg/scheduler"
)

// Version is set at build time via ldflags (e.g. goreleaser -X main.Version={{.Version}}).
var Version string

func main() {
	// CRITICAL: MCP servers must ONLY output JSON-RPC to stdout
	// Redirect all logging to stderr
	log.SetOutput(os.Stderr)

	// Define command-line flags
	ownerFlag := flag.String("owner", "", "Owner scope key (default: MNEMOS_OWNER env var, then system username)")
	dbType := flag.String("db-type", "", "Database type (sqlite or postgres)")
	dbPath := flag.String("db-path", "", "Database path (for sqlite)")
	dbDSN := flag.String("db-dsn", "", "Database DSN (for postgres)")
	configPath := flag.String("config", "", "Path to config file")
	noCache := flag.Bool("no-cache", false, "Disable the in-process profile cache")

	// Embedding flags
	enableEmbeddings := flag.Bool("enable-embeddings", false, "Enable semantic recall with embeddings")
	embeddingURL := flag.String("embedding-url", "", "Embedding API base URL")
	embeddingModel := flag.String("embedding-model", "", "Embedding model name")
	embeddingKey := flag.String("embedding-key", "", "Embedding API key (alternative to env var)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Mnemos MCP Server\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Server Mode:\n")
		fmt.Fprintf(os.Stderr, "  %s                          Start MCP server (stdio) for the system user\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --owner alice            Start MCP server scoped to 'alice'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEmbeddings:\n")
		fmt.Fprintf(os.Stderr, "  %s --enable-embeddings   Enable semantic recall with embeddings\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MNEMOS_OWNER       Owner scope key\n")
		fmt.Fprintf(os.Stderr, "  DB_TYPE            Database type (sqlite or postgres)\n")
		fmt.Fprintf(os.Stderr, "  DB_PATH            SQLite database path\n")
		fmt.Fprintf(os.Stderr, "  DB_DSN             PostgreSQL connection string\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY     OpenAI API key (required when embeddings enabled)\n")
	}

	flag.Parse()

	log.Println("Starting Mnemos MCP Server...")

	// Load configuration
	var cfg *config.Config
	var err error

	if *configPath != "" {
		cfg, err = config.LoadFromPath(*configPath)
		if err != nil {
			log.Printf("Warning: Failed to load config from %s: %v", *configPath, err)
			log.Println("Using defaults")
			cfg = config.DefaultConfig()
		} else {
			log.Printf("Loaded configuration from %s", *configPath)
		}
	} else {
		cfg, err = config.Load()
		if err != nil {
			log.Printf("Warning: Failed to load default config: %v", err)
			log.Println("Using built-in defaults")
			cfg = config.DefaultConfig()
		} else {
			log.Printf("Loaded configuration from ~/.mnemos/configs/config.json")
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Apply CLI flag overrides (highest priority)
	applyCLIOverrides(cfg, *dbType, *dbPath, *dbDSN)

	// Apply embedding CLI overrides
	applyEmbeddingCLIOverrides(cfg, *enableEmbeddings, *embeddingURL, *embeddingModel, *embeddingKey)

	// Log final configuration
	log.Printf("Configuration: database=%s", cfg.Database.Type)

	// Connect to the database
	dbCfg := &database.Config{
		Type:        cfg.Database.Type,
		SQLitePath:  cfg.Database.SQLitePath,
		PostgresDSN: cfg.Database.PostgresDSN,
		LogLevel:    logger.Silent, // CRITICAL: Silence GORM stdout output for MCP
	}

	db, err := database.Connect(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	log.Printf("Connected to database: %s", cfg.Database.Type)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database migrations completed")

	if err := database.CreateIndexes(db); err != nil {
		log.Printf("Warning: Failed to create indexes: %v", err)
	}

	// Resolve the owner scope this process serves
	ownerScope := resolveOwner(*ownerFlag)
	log.Printf("Serving owner scope: %s", ownerScope)

	// Build the stores
	memories := memorystore.New(db, memorystore.Config{
		DedupScope: memorystore.DedupScope(cfg.Memory.DedupScope),
	})
	vectors := vector.NewIndex(db)

	var profiles *profile.Store
	if *noCache {
		profiles = profile.NewStore(db)
	} else {
		profiles, err = profile.NewStoreWithCache(db, profile.CacheConfig{
			NumCounters: cfg.Cache.NumCounters,
			MaxCostMB:   cfg.Cache.MaxCostMB,
		})
		if err != nil {
			log.Printf("Warning: profile cache unavailable, running without: %v", err)
			profiles = profile.NewStore(db)
		}
	}

	searcher := recall.NewSearcher(vectors, memories)

	toolCtx := tools.NewToolContext(memories, vectors, profiles, goals.NewStore(db), searcher)
	toolCtx.RecentLimit = cfg.Memory.RecentLimit

	// Wire the embedding client when enabled
	if cfg.Embeddings.Enabled {
		apiKey := os.Getenv(cfg.Embeddings.APIKeyEnv)
		if apiKey == "" {
			log.Printf("Warning: embeddings enabled but %s is not set; semantic recall disabled", cfg.Embeddings.APIKeyEnv)
		} else {
			toolCtx.SetEmbedder(embeddings.NewOpenAIClient(
				cfg.Embeddings.BaseURL,
				apiKey,
				cfg.Embeddings.Model,
				cfg.Embeddings.Dimensions,
			))
			log.Println("Semantic recall enabled")
		}
	}

	// Create MCP server and register the tool surface
	mcpServer := server.NewMCPServer(cfg)
	mcpServer.RegisterTools(toolCtx, ownerScope)

	// Start background index maintenance
	sched := scheduler.NewScheduler(searcher, cfg.Scheduler.RebuildInterval)
	sched.Start()
	defer sched.Stop()

	log.Printf("Recall index rebuild scheduler started (interval: %d minutes)", cfg.Scheduler.RebuildInterval)
	log.Println("MCP server ready (stdio mode) - 7 tools registered")

	// Serve via stdio
	if err := mcpServer.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}

// resolveOwner picks the owner scope key: flag, then env, then the system
// username.
func resolveOwner(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("MNEMOS_OWNER"); env != "" {
		return env
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "default"
}

// applyEnvOverrides applies environment variable overrides to configuration
func applyEnvOverrides(cfg *config.Config) {
	// Database type
	if dbType := getEnv("DB_TYPE", "MNEMOS_DB_TYPE"); dbType != "" {
		cfg.Database.Type = dbType
		log.Printf("Database type from ENV: %s", dbType)
	}

	// Database path (SQLite)
	if dbPath := getEnv("DB_PATH", "MNEMOS_DB_PATH"); dbPath != "" {
		cfg.Database.SQLitePath = dbPath
		log.Printf("Database path from ENV")
	}

	// Database DSN (Postgres)
	if dbDSN := getEnv("DB_DSN", "MNEMOS_DB_DSN"); dbDSN != "" {
		cfg.Database.PostgresDSN = dbDSN
		log.Printf("Database DSN from ENV (hidden)")
	}
}

// applyCLIOverrides applies command-line flag overrides to configuration
func applyCLIOverrides(cfg *config.Config, dbType, dbPath, dbDSN string) {
	if dbType != "" {
		cfg.Database.Type = dbType
		log.Printf("Database type from CLI: %s", dbType)
	}

	if dbPath != "" {
		cfg.Database.SQLitePath = dbPath
		log.Printf("Database path from CLI")
	}

	if dbDSN != "" {
		cfg.Database.PostgresDSN = dbDSN
		log.Printf("Database DSN from CLI (hidden)")
	}
}

// applyEmbeddingCLIOverrides applies embedding-related CLI flag overrides
func applyEmbeddingCLIOverrides(cfg *config.Config, enableEmbeddings bool, embeddingURL, embeddingModel, embeddingKey string) {
	if enableEmbeddings {
		cfg.Embeddings.Enabled = true
		log.Printf("Embeddings enabled from CLI")
	}

	if embeddingURL != "" {
		cfg.Embeddings.BaseURL = embeddingURL
		log.Printf("Embedding URL from CLI")
	}

	if embeddingModel != "" {
		cfg.Embeddings.Model = embeddingModel
		log.Printf("Embedding model from CLI: %s", embeddingModel)
	}

	if embeddingKey != "" {
		// Stash the key in the configured env var so one code path reads it
		os.Setenv(cfg.Embeddings.APIKeyEnv, embeddingKey)
		log.Printf("Embedding API key from CLI (hidden)")
	}
}

// getEnv tries multiple environment variable names and returns the first non-empty value
func getEnv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}
