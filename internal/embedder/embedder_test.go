package embedder

import (
	"context"
	"errors"
	"math"
	"time"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderDeterministic(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	first, err := provider.Embed(ctx, "stable input text")
	require.NoError(t, err)
	second, err := provider.Embed(ctx, "stable input text")
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.Equal(t, LocalDimension, first.Dimension)
	assert.Len(t, first.Vector, LocalDimension)
	assert.Equal(t, ProviderLocal, first.Provider)
	assert.Equal(t, ComputeHash("stable input text"), first.Hash)
}

func TestLocalProviderDistinctInputs(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	a, err := provider.Embed(ctx, "first text")
	require.NoError(t, err)
	b, err := provider.Embed(ctx, "second text")
	require.NoError(t, err)

	assert.NotEqual(t, a.Vector, b.Vector)
}

func TestLocalProviderUnitLength(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	emb, err := provider.Embed(context.Background(), "normalize me")
	require.NoError(t, err)

	var sum float64
	for _, v := range emb.Vector {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 0.001)
}

func TestLocalProviderEmptyText(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	_, err = provider.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestLocalProviderBatch(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	embeddings, err := provider.EmbedBatch(ctx, []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, embeddings, 3)

	single, err := provider.Embed(ctx, "two")
	require.NoError(t, err)
	assert.Equal(t, single.Vector, embeddings[1].Vector)
}

func TestLocalProviderBatchValidation(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	_, err = provider.EmbedBatch(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = provider.EmbedBatch(ctx, []string{"ok", ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCache(10)

	emb := &Embedding{
		Vector:    []float32{1, 2, 3},
		Dimension: 3,
		Provider:  ProviderLocal,
		Model:     LocalModel,
		Hash:      "abc",
	}
	cache.Set("abc", emb)

	got, ok := cache.Get("abc")
	require.True(t, ok)
	assert.Equal(t, emb.Vector, got.Vector)

	// Mutating the returned copy must not affect the cached value.
	got.Vector[0] = 99
	again, ok := cache.Get("abc")
	require.True(t, ok)
	assert.Equal(t, float32(1), again.Vector[0])
}

func TestCacheEviction(t *testing.T) {
	cache := NewCache(2)

	cache.Set("a", &Embedding{Vector: []float32{1}})
	cache.Set("b", &Embedding{Vector: []float32{2}})
	cache.Set("c", &Embedding{Vector: []float32{3}})

	assert.Equal(t, 2, cache.Size())
	_, ok := cache.Get("a")
	assert.False(t, ok)
	_, ok = cache.Get("c")
	assert.True(t, ok)
}

func TestCacheMiss(t *testing.T) {
	cache := NewCache(10)
	_, ok := cache.Get("never-set")
	assert.False(t, ok)
}

func TestComputeHashStable(t *testing.T) {
	assert.Equal(t, ComputeHash("same"), ComputeHash("same"))
	assert.NotEqual(t, ComputeHash("same"), ComputeHash("different"))
	assert.Len(t, ComputeHash("x"), 64)
}

func TestRetryWithBackoffSucceedsAfterFailures(t *testing.T) {
	config := RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
		Multiplier: 1.0,
	}

	attempts := 0
	result, err := retryWithBackoff(context.Background(), config, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffExhausted(t *testing.T) {
	config := RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
		Multiplier: 1.0,
	}

	attempts := 0
	_, err := retryWithBackoff(context.Background(), config, func() (string, error) {
		attempts++
		return "", errors.New("permanent")
	})
	require.Error(t, err)
	assert.Equal(t, "permanent", err.Error())
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoffCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	config := DefaultRetryConfig()
	attempts := 0
	_, err := retryWithBackoff(ctx, config, func() (string, error) {
		attempts++
		return "", errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestNormalizeVectorZero(t *testing.T) {
	zero := []float32{0, 0, 0}
	assert.Equal(t, zero, NormalizeVector(zero))
}
