// Package embedder generates vector embeddings for context node
// content during the optimization pass.
//
// # Providers
//
// Two providers are available:
//
//   - openai: calls the OpenAI embeddings API (text-embedding-3-small
//     by default) with exponential backoff retry. Requires an API key.
//   - local: derives a deterministic 256-dimension unit vector from
//     the SHA-256 digest of the input. No network access, stable
//     across runs, suitable for development and for builds where no
//     API key is configured.
//
// Provider selection happens through NewFromEnv, which consults
// CTXNODE_EMBEDDING_PROVIDER first, then falls back to openai when
// OPENAI_API_KEY is set, and finally to local.
//
// # Caching
//
// All providers share the same LRU cache keyed by the SHA-256 hash of
// the input text. Cache hits return deep copies so callers cannot
// mutate cached vectors. The cache is bounded and evicts the least
// recently used entry at capacity.
//
// # Usage
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//		return err
//	}
//	defer emb.Close()
//
//	result, err := emb.Embed(ctx, node.Content)
package embedder
