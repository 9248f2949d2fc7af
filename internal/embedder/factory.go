package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted by NewFromEnv
const (
	EnvProvider     = "CTXNODE_EMBEDDING_PROVIDER"
	EnvModel        = "CTXNODE_EMBEDDING_MODEL"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	CacheSize int
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// NewFromEnv creates an embedder based on environment variables.
// Priority:
//  1. CTXNODE_EMBEDDING_PROVIDER (openai, local)
//  2. OPENAI_API_KEY present selects openai
//  3. Fallback to the local deterministic provider
func NewFromEnv() (Embedder, error) {
	cache := NewCache(10000)

	if provider := os.Getenv(EnvProvider); provider != "" {
		switch strings.ToLower(provider) {
		case ProviderOpenAI:
			return NewOpenAIProvider(os.Getenv(EnvOpenAIAPIKey), os.Getenv(EnvModel), cache)
		case ProviderLocal:
			return NewLocalProvider(cache)
		default:
			return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, provider)
		}
	}

	if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
		return NewOpenAIProvider(key, os.Getenv(EnvModel), cache)
	}
	return NewLocalProvider(cache)
}

// DetectProvider returns the provider NewFromEnv would select
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	return ProviderLocal
}
