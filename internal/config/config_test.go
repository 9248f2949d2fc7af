package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CTXNODE_DB_PATH", "")
	t.Setenv("CTXNODE_MAX_CHUNK_TOKENS", "")
	t.Setenv("CTXNODE_WORKERS", "")
	t.Setenv("CTXNODE_OP_TIMEOUT", "")
	t.Setenv("CTXNODE_DEBUG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MaxChunkTokens)
	assert.Equal(t, 0, cfg.OverlapChars)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.OpTimeout)
	assert.Equal(t, 20, cfg.SearchLimit)
	assert.Equal(t, 10000, cfg.EmbeddingCacheSize)
	assert.False(t, cfg.Debug)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CTXNODE_DB_PATH", "/tmp/test.db")
	t.Setenv("CTXNODE_MAX_CHUNK_TOKENS", "500")
	t.Setenv("CTXNODE_OVERLAP_CHARS", "64")
	t.Setenv("CTXNODE_WORKERS", "8")
	t.Setenv("CTXNODE_OP_TIMEOUT", "5s")
	t.Setenv("CTXNODE_SEARCH_LIMIT", "50")
	t.Setenv("CTXNODE_DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 500, cfg.MaxChunkTokens)
	assert.Equal(t, 64, cfg.OverlapChars)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.OpTimeout)
	assert.Equal(t, 50, cfg.SearchLimit)
	assert.True(t, cfg.Debug)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CTXNODE_MAX_CHUNK_TOKENS", "not-a-number")
	t.Setenv("CTXNODE_OP_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MaxChunkTokens)
	assert.Equal(t, 30*time.Second, cfg.OpTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero chunk tokens", func(c *Config) { c.MaxChunkTokens = 0 }, true},
		{"negative overlap", func(c *Config) { c.OverlapChars = -1 }, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"too many workers", func(c *Config) { c.Workers = 100 }, true},
		{"zero search limit", func(c *Config) { c.SearchLimit = 0 }, true},
		{"zero timeout", func(c *Config) { c.OpTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				DBPath:         "test.db",
				MaxChunkTokens: 1000,
				Workers:        4,
				OpTimeout:      time.Second,
				SearchLimit:    20,
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
