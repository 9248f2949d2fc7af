package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// Provider configuration
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	// Default models
	DefaultOpenAIModel = "text-embedding-3-small"
	LocalModel         = "hash-v1"

	// Dimensions
	OpenAIDimension = 1536
	LocalDimension  = 256

	// Batch limits
	MaxBatchSize = 100

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// OpenAIProvider implements Embedder using the OpenAI embeddings API
type OpenAIProvider struct {
	client *openai.Client
	model  string
	cache  *Cache
}

// NewOpenAIProvider creates an OpenAI-backed embedder
func NewOpenAIProvider(apiKey, model string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing OpenAI API key", ErrNoProviderEnabled)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  model,
		cache:  cache,
	}, nil
}

func (o *OpenAIProvider) Embed(ctx context.Context, text string) (*Embedding, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	hash := ComputeHash(text)
	if o.cache != nil {
		if emb, ok := o.cache.Get(hash); ok {
			return emb, nil
		}
	}

	embeddings, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}
	return embeddings[0], nil
}

func (o *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	config := DefaultRetryConfig()
	embeddings, err := retryWithBackoff(ctx, config, func() ([]*Embedding, error) {
		return o.callAPI(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, MaxRetries, err)
	}

	if o.cache != nil {
		for i, emb := range embeddings {
			hash := ComputeHash(texts[i])
			emb.Hash = hash
			o.cache.Set(hash, emb)
		}
	}

	return embeddings, nil
}

func (o *OpenAIProvider) callAPI(ctx context.Context, texts []string) ([]*Embedding, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(o.model),
	})
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	embeddings := make([]*Embedding, len(resp.Data))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		embeddings[data.Index] = &Embedding{
			Vector:    data.Embedding,
			Dimension: len(data.Embedding),
			Provider:  ProviderOpenAI,
			Model:     o.model,
		}
	}
	return embeddings, nil
}

func (o *OpenAIProvider) Dimension() int {
	return OpenAIDimension
}

func (o *OpenAIProvider) Provider() string {
	return ProviderOpenAI
}

func (o *OpenAIProvider) Model() string {
	return o.model
}

func (o *OpenAIProvider) Close() error {
	return nil
}

// LocalProvider generates deterministic hash-derived embeddings without
// any external service. Vectors are stable across runs for the same
// input, which is enough for cache keys and coarse similarity grouping.
type LocalProvider struct {
	model string
	cache *Cache
}

// NewLocalProvider creates a local deterministic embedder
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{
		model: LocalModel,
		cache: cache,
	}, nil
}

func (l *LocalProvider) Embed(ctx context.Context, text string) (*Embedding, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := ComputeHash(text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    NormalizeVector(hashVector(text)),
		Dimension: LocalDimension,
		Provider:  ProviderLocal,
		Model:     l.model,
		Hash:      hash,
	}

	if l.cache != nil {
		l.cache.Set(hash, emb)
	}
	return emb, nil
}

func (l *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(texts))
	for i, text := range texts {
		emb, err := l.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// hashVector expands the text's SHA-256 digest into LocalDimension
// float components by rehashing with a per-block counter.
func hashVector(text string) []float32 {
	vector := make([]float32, 0, LocalDimension)
	var counter [8]byte
	for block := 0; len(vector) < LocalDimension; block++ {
		binary.LittleEndian.PutUint64(counter[:], uint64(block))
		h := sha256.New()
		h.Write(counter[:])
		h.Write([]byte(text))
		digest := h.Sum(nil)
		for _, b := range digest {
			if len(vector) == LocalDimension {
				break
			}
			vector = append(vector, float32(b)/255.0-0.5)
		}
	}
	return vector
}

func (l *LocalProvider) Dimension() int {
	return LocalDimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}

// NormalizeVector normalizes a vector to unit length
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val * val)
	}
	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / norm
	}
	return result
}
