// Package config loads server configuration from environment variables
// with validation and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the context node server
type Config struct {
	// Storage settings
	DBPath string

	// Chunking settings
	MaxChunkTokens int
	OverlapChars   int

	// Conversion settings
	Workers     int
	OpTimeout   time.Duration
	SearchLimit int

	// Embedding settings
	EmbeddingProvider  string
	EmbeddingModel     string
	OpenAIKey          string
	EmbeddingCacheSize int

	// Logging
	Debug bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:             getEnv("CTXNODE_DB_PATH", defaultDBPath()),
		MaxChunkTokens:     getEnvInt("CTXNODE_MAX_CHUNK_TOKENS", 1000),
		OverlapChars:       getEnvInt("CTXNODE_OVERLAP_CHARS", 0),
		Workers:            getEnvInt("CTXNODE_WORKERS", 4),
		OpTimeout:          getEnvDuration("CTXNODE_OP_TIMEOUT", 30*time.Second),
		SearchLimit:        getEnvInt("CTXNODE_SEARCH_LIMIT", 20),
		EmbeddingProvider:  os.Getenv("CTXNODE_EMBEDDING_PROVIDER"),
		EmbeddingModel:     os.Getenv("CTXNODE_EMBEDDING_MODEL"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		EmbeddingCacheSize: getEnvInt("CTXNODE_EMBEDDING_CACHE_SIZE", 10000),
		Debug:              getEnvBool("CTXNODE_DEBUG", false),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.MaxChunkTokens <= 0 {
		return fmt.Errorf("CTXNODE_MAX_CHUNK_TOKENS must be positive, got %d", c.MaxChunkTokens)
	}
	if c.OverlapChars < 0 {
		return fmt.Errorf("CTXNODE_OVERLAP_CHARS must not be negative, got %d", c.OverlapChars)
	}
	if c.Workers <= 0 || c.Workers > 64 {
		return fmt.Errorf("CTXNODE_WORKERS must be 1-64, got %d", c.Workers)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("CTXNODE_SEARCH_LIMIT must be positive, got %d", c.SearchLimit)
	}
	if c.OpTimeout <= 0 {
		return fmt.Errorf("CTXNODE_OP_TIMEOUT must be positive, got %s", c.OpTimeout)
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ctxnode.db"
	}
	return filepath.Join(home, ".ctxnode", "ctxnode.db")
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
