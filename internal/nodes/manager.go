package nodes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ctxnode/ctxnode-mcp/internal/chunker"
	"github.com/ctxnode/ctxnode-mcp/internal/embedder"
	"github.com/ctxnode/ctxnode-mcp/internal/estimator"
	"github.com/ctxnode/ctxnode-mcp/internal/storage"
	"github.com/ctxnode/ctxnode-mcp/internal/synthesizer"
	"github.com/ctxnode/ctxnode-mcp/pkg/types"
)

// ErrNoEmbedder is returned by OptimizeContextNodes when the manager
// was built without an embedding provider.
var ErrNoEmbedder = errors.New("no embedding provider configured")

const (
	defaultWorkers     = 4
	defaultSearchLimit = 20
	defaultOpTimeout   = 30 * time.Second
)

// Options tunes manager behavior. Zero values select defaults.
type Options struct {
	Workers     int
	Strategy    types.ChunkingStrategy
	SearchLimit int
	OpTimeout   time.Duration
	Embedder    embedder.Embedder
}

// Manager is the service facade over conversion, storage, and search
// of context nodes.
type Manager struct {
	store       storage.Storage
	chunker     *chunker.Chunker
	synthesizer *synthesizer.Synthesizer
	embedder    embedder.Embedder
	logger      *zap.Logger

	workers     int
	strategy    types.ChunkingStrategy
	searchLimit int
	opTimeout   time.Duration
}

// NewManager creates a manager over the given store.
func NewManager(store storage.Storage, logger *zap.Logger, opts Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	strategy := opts.Strategy
	if strategy.MaxTokens <= 0 {
		strategy = types.DefaultStrategy()
	}
	searchLimit := opts.SearchLimit
	if searchLimit <= 0 {
		searchLimit = defaultSearchLimit
	}
	opTimeout := opts.OpTimeout
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}

	return &Manager{
		store:       store,
		chunker:     chunker.New(),
		synthesizer: synthesizer.New(),
		embedder:    opts.Embedder,
		logger:      logger,
		workers:     workers,
		strategy:    strategy,
		searchLimit: searchLimit,
		opTimeout:   opTimeout,
	}
}

// ConvertContextToNodes chunks a context, synthesizes one node per
// chunk, and persists the batch. Content at or below the chunking
// threshold produces a single node. Returned nodes are ordered by
// chunk index.
func (m *Manager) ConvertContextToNodes(ctx context.Context, c *types.Context) ([]*types.ContextNode, error) {
	if c == nil {
		return nil, types.ErrNilContext
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid context: %w", err)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	var chunks []string
	if estimator.EstimateTokens(c.Content) <= estimator.ChunkThreshold {
		chunks = []string{c.Content}
	} else {
		result, err := m.chunker.Split(c.Content, m.strategy)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk context %s: %w", c.ID, err)
		}
		chunks = make([]string, len(result.Spans))
		for i, span := range result.Spans {
			chunks[i] = span.Content
		}
	}

	nodes, err := m.synthesizeAll(ctx, c, chunks)
	if err != nil {
		return nil, err
	}

	if err := m.store.InsertNodes(ctx, nodes); err != nil {
		m.logger.Error("failed to store nodes",
			zap.String("context_id", c.ID),
			zap.Int("count", len(nodes)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to store nodes for context %s: %w", c.ID, err)
	}

	m.logger.Debug("converted context",
		zap.String("context_id", c.ID),
		zap.String("type", string(c.Type)),
		zap.Int("nodes", len(nodes)))
	return nodes, nil
}

// synthesizeAll runs node synthesis across a bounded worker pool.
// Results land in a slice indexed by chunk position, so output order
// is deterministic regardless of scheduling.
func (m *Manager) synthesizeAll(ctx context.Context, c *types.Context, chunks []string) ([]*types.ContextNode, error) {
	nodes := make([]*types.ContextNode, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			nodes[i] = m.synthesizer.Synthesize(chunk, c, i, len(chunks))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to synthesize nodes for context %s: %w", c.ID, err)
	}
	return nodes, nil
}

// GetContextNodes returns all nodes for a context in chunk order.
// An unknown context yields an empty slice, not an error.
func (m *Manager) GetContextNodes(ctx context.Context, contextID string) ([]*types.ContextNode, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	nodes, err := m.store.ListNodesByContext(ctx, contextID)
	if err != nil {
		m.logger.Error("failed to list nodes",
			zap.String("context_id", contextID), zap.Error(err))
		return nil, fmt.Errorf("failed to list nodes for context %s: %w", contextID, err)
	}
	if nodes == nil {
		nodes = []*types.ContextNode{}
	}
	return nodes, nil
}

// GetContextNode returns a node by ID, or (nil, nil) when no such
// node exists.
func (m *Manager) GetContextNode(ctx context.Context, nodeID string) (*types.ContextNode, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	node, err := m.store.GetNode(ctx, nodeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		m.logger.Error("failed to get node",
			zap.String("node_id", nodeID), zap.Error(err))
		return nil, fmt.Errorf("failed to get node %s: %w", nodeID, err)
	}
	return node, nil
}

// UpdateContextNode applies a partial update. Updating a missing node
// is an error, unlike reads. When content changes without an explicit
// token count, the count is recomputed from the new content.
func (m *Manager) UpdateContextNode(ctx context.Context, nodeID string, update types.NodeUpdate) (*types.ContextNode, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	if update.Content != nil && update.TokenCount == nil {
		count := estimator.EstimateTokens(*update.Content)
		update.TokenCount = &count
	}

	node, err := m.store.UpdateNode(ctx, nodeID, update)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("node %s not found", nodeID)
	}
	if err != nil {
		m.logger.Error("failed to update node",
			zap.String("node_id", nodeID), zap.Error(err))
		return nil, fmt.Errorf("failed to update node %s: %w", nodeID, err)
	}
	return node, nil
}

// DeleteContextNodes removes every node of a context and reports how
// many were deleted. Deleting an unknown context reports zero.
func (m *Manager) DeleteContextNodes(ctx context.Context, contextID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	count, err := m.store.DeleteNodesByContext(ctx, contextID)
	if err != nil {
		m.logger.Error("failed to delete nodes",
			zap.String("context_id", contextID), zap.Error(err))
		return 0, fmt.Errorf("failed to delete nodes for context %s: %w", contextID, err)
	}

	m.logger.Debug("deleted context nodes",
		zap.String("context_id", contextID), zap.Int("count", count))
	return count, nil
}

// SearchContextNodes runs a text search over stored nodes. A
// non-positive limit selects the configured default.
func (m *Manager) SearchContextNodes(ctx context.Context, query string, limit int) ([]*types.ContextNode, error) {
	if query == "" {
		return []*types.ContextNode{}, nil
	}
	if limit <= 0 {
		limit = m.searchLimit
	}

	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	nodes, err := m.store.SearchText(ctx, query, limit)
	if err != nil {
		m.logger.Error("search failed",
			zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("failed to search nodes: %w", err)
	}
	if nodes == nil {
		nodes = []*types.ContextNode{}
	}
	return nodes, nil
}

// GetContextNodesByType returns nodes of one chunk type, newest first.
func (m *Manager) GetContextNodesByType(ctx context.Context, chunkType types.ChunkType, limit int) ([]*types.ContextNode, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	nodes, err := m.store.ListNodesByType(ctx, string(chunkType), limit)
	if err != nil {
		m.logger.Error("failed to list nodes by type",
			zap.String("chunk_type", string(chunkType)), zap.Error(err))
		return nil, fmt.Errorf("failed to list %s nodes: %w", chunkType, err)
	}
	if nodes == nil {
		nodes = []*types.ContextNode{}
	}
	return nodes, nil
}

// GetContextNodeStats returns aggregate statistics over all nodes.
func (m *Manager) GetContextNodeStats(ctx context.Context) (*types.NodeStats, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Error("failed to compute stats", zap.Error(err))
		return nil, fmt.Errorf("failed to compute node stats: %w", err)
	}
	return stats, nil
}

// OptimizeContextNodes embeds the content of every node in a context
// and marks them optimized. Returns the number of nodes processed.
func (m *Manager) OptimizeContextNodes(ctx context.Context, contextID string) (int, error) {
	if m.embedder == nil {
		return 0, ErrNoEmbedder
	}

	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	nodes, err := m.store.ListNodesByContext(ctx, contextID)
	if err != nil {
		return 0, fmt.Errorf("failed to list nodes for context %s: %w", contextID, err)
	}
	if len(nodes) == 0 {
		return 0, nil
	}

	texts := make([]string, len(nodes))
	for i, node := range nodes {
		texts[i] = node.Content
	}

	embeddings, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		m.logger.Error("embedding failed",
			zap.String("context_id", contextID), zap.Error(err))
		return 0, fmt.Errorf("failed to embed nodes for context %s: %w", contextID, err)
	}

	optimized := true
	for i, node := range nodes {
		emb := embeddings[i]
		if err := m.store.UpsertEmbedding(ctx, &storage.NodeEmbedding{
			NodeID:   node.ID,
			Vector:   emb.Vector,
			Provider: emb.Provider,
			Model:    emb.Model,
		}); err != nil {
			return i, fmt.Errorf("failed to store embedding for node %s: %w", node.ID, err)
		}
		if _, err := m.store.UpdateNode(ctx, node.ID, types.NodeUpdate{IsOptimized: &optimized}); err != nil {
			return i, fmt.Errorf("failed to mark node %s optimized: %w", node.ID, err)
		}
	}

	m.logger.Debug("optimized context nodes",
		zap.String("context_id", contextID),
		zap.Int("count", len(nodes)),
		zap.String("provider", m.embedder.Provider()))
	return len(nodes), nil
}
