package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ctxnode/ctxnode-mcp/pkg/types"
)

// ErrNotFound is returned when a requested node does not exist.
var ErrNotFound = errors.New("not found")

// NodeEmbedding is a stored embedding vector for a single node.
type NodeEmbedding struct {
	NodeID    string
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// Storage defines the persistence interface for context nodes.
type Storage interface {
	// InsertNodes stores a batch of nodes in a single transaction.
	// Either all nodes are stored or none are.
	InsertNodes(ctx context.Context, nodes []*types.ContextNode) error

	// GetNode retrieves a single node by ID.
	// Returns ErrNotFound if the node does not exist.
	GetNode(ctx context.Context, nodeID string) (*types.ContextNode, error)

	// ListNodesByContext returns all nodes derived from the given
	// context, ordered by chunk index.
	ListNodesByContext(ctx context.Context, contextID string) ([]*types.ContextNode, error)

	// UpdateNode applies a partial update to a node and returns the
	// updated row. Returns ErrNotFound if the node does not exist.
	UpdateNode(ctx context.Context, nodeID string, update types.NodeUpdate) (*types.ContextNode, error)

	// DeleteNodesByContext removes all nodes derived from the given
	// context and reports how many rows were deleted.
	DeleteNodesByContext(ctx context.Context, contextID string) (int, error)

	// SearchText performs a full-text search over node content,
	// summaries, and keywords. When the full-text index is
	// unavailable it falls back to a substring scan.
	SearchText(ctx context.Context, query string, limit int) ([]*types.ContextNode, error)

	// ListNodesByType returns nodes of the given chunk type,
	// newest first.
	ListNodesByType(ctx context.Context, chunkType string, limit int) ([]*types.ContextNode, error)

	// Stats returns aggregate counts over all stored nodes.
	Stats(ctx context.Context) (*types.NodeStats, error)

	// UpsertEmbedding stores or replaces the embedding for a node.
	UpsertEmbedding(ctx context.Context, emb *NodeEmbedding) error

	// GetEmbedding retrieves the stored embedding for a node.
	// Returns ErrNotFound if no embedding exists.
	GetEmbedding(ctx context.Context, nodeID string) (*NodeEmbedding, error)

	// Close releases the underlying database connection.
	Close() error
}
