package nodes

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxnode/ctxnode-mcp/internal/embedder"
	"github.com/ctxnode/ctxnode-mcp/internal/estimator"
	"github.com/ctxnode/ctxnode-mcp/internal/storage"
	"github.com/ctxnode/ctxnode-mcp/pkg/types"
)

func newTestManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewManager(store, nil, opts)
}

// largeContent builds multi-paragraph prose well above the chunking
// threshold.
func largeContent() string {
	paragraphs := make([]string, 10)
	for i := range paragraphs {
		paragraphs[i] = strings.TrimSpace(strings.Repeat("some plain prose words here ", 50))
	}
	return strings.Join(paragraphs, "\n\n")
}

func TestConvertSmallContextSingleNode(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()

	c := &types.Context{
		ID:      "ctx-small",
		Content: "A short note about database tuning. Keep connection pools small.",
		Type:    types.ContextNote,
		Tags:    []string{"database"},
	}
	nodes, err := m.ConvertContextToNodes(ctx, c)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	node := nodes[0]
	assert.Equal(t, "ctx-small_node_0", node.ID)
	assert.Equal(t, c.Content, node.Content)
	assert.Equal(t, 0, node.Meta.ChunkIndex)
	assert.Equal(t, 1, node.Meta.TotalChunks)
	assert.Equal(t, "ctx-small", node.Meta.OriginalContextID)
	assert.Equal(t, "ctx-small", node.ParentNodeID)
	assert.Positive(t, node.TokenCount)
	assert.NotEmpty(t, node.Summary)
	assert.Contains(t, node.Keywords, "database")
	assert.Empty(t, node.Relationships)
	assert.False(t, node.Meta.IsOptimized)

	// The node must be retrievable from storage.
	stored, err := m.GetContextNode(ctx, node.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, node.Content, stored.Content)
}

func TestConvertLargeContextMultipleNodes(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()

	content := largeContent()
	require.Greater(t, estimator.EstimateTokens(content), estimator.ChunkThreshold)

	c := &types.Context{ID: "ctx-large", Content: content, Type: types.ContextDocumentation}
	nodes, err := m.ConvertContextToNodes(ctx, c)
	require.NoError(t, err)
	require.Greater(t, len(nodes), 1)

	// Chunk indexes are contiguous and deterministic IDs line up.
	var rebuilt strings.Builder
	for i, node := range nodes {
		assert.Equal(t, i, node.Meta.ChunkIndex)
		assert.Equal(t, len(nodes), node.Meta.TotalChunks)
		assert.Equal(t, fmt.Sprintf("ctx-large_node_%d", i), node.ID)
		rebuilt.WriteString(node.Content)
	}

	// Zero overlap means concatenation reproduces the input exactly.
	assert.Equal(t, content, rebuilt.String())
}

func TestConvertNilAndInvalidContext(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()

	_, err := m.ConvertContextToNodes(ctx, nil)
	assert.ErrorIs(t, err, types.ErrNilContext)

	_, err = m.ConvertContextToNodes(ctx, &types.Context{ID: "x"})
	assert.ErrorIs(t, err, types.ErrEmptyContent)
}

func TestConvertAssignsContextID(t *testing.T) {
	m := newTestManager(t, Options{})

	c := &types.Context{Content: "content without an identifier", Type: types.ContextNote}
	nodes, err := m.ConvertContextToNodes(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, types.NodeID(c.ID, 0), nodes[0].ID)
}

func TestGetContextNodesOrdering(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()

	c := &types.Context{ID: "ctx-order", Content: largeContent(), Type: types.ContextNote}
	created, err := m.ConvertContextToNodes(ctx, c)
	require.NoError(t, err)

	nodes, err := m.GetContextNodes(ctx, "ctx-order")
	require.NoError(t, err)
	require.Len(t, nodes, len(created))
	for i, node := range nodes {
		assert.Equal(t, i, node.Meta.ChunkIndex)
	}
}

func TestGetContextNodesUnknownContext(t *testing.T) {
	m := newTestManager(t, Options{})

	nodes, err := m.GetContextNodes(context.Background(), "no-such-context")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestGetContextNodeMissingIsNil(t *testing.T) {
	m := newTestManager(t, Options{})

	node, err := m.GetContextNode(context.Background(), "missing_node_0")
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestUpdateContextNodeRecomputesTokens(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()

	c := &types.Context{ID: "ctx-upd", Content: "original words here.", Type: types.ContextNote}
	nodes, err := m.ConvertContextToNodes(ctx, c)
	require.NoError(t, err)

	newContent := "a considerably longer replacement text with many more words than before."
	updated, err := m.UpdateContextNode(ctx, nodes[0].ID, types.NodeUpdate{Content: &newContent})
	require.NoError(t, err)
	assert.Equal(t, newContent, updated.Content)
	assert.Equal(t, estimator.EstimateTokens(newContent), updated.TokenCount)
}

func TestUpdateContextNodeExplicitTokenCountWins(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()

	c := &types.Context{ID: "ctx-tok", Content: "short content.", Type: types.ContextNote}
	nodes, err := m.ConvertContextToNodes(ctx, c)
	require.NoError(t, err)

	newContent := "replacement"
	count := 777
	updated, err := m.UpdateContextNode(ctx, nodes[0].ID, types.NodeUpdate{
		Content:    &newContent,
		TokenCount: &count,
	})
	require.NoError(t, err)
	assert.Equal(t, 777, updated.TokenCount)
}

func TestUpdateContextNodeMissingIsError(t *testing.T) {
	m := newTestManager(t, Options{})

	content := "anything"
	_, err := m.UpdateContextNode(context.Background(), "missing_node_0", types.NodeUpdate{Content: &content})
	assert.Error(t, err)
}

func TestDeleteContextNodes(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()

	c := &types.Context{ID: "ctx-del", Content: largeContent(), Type: types.ContextNote}
	created, err := m.ConvertContextToNodes(ctx, c)
	require.NoError(t, err)

	count, err := m.DeleteContextNodes(ctx, "ctx-del")
	require.NoError(t, err)
	assert.Equal(t, len(created), count)

	// A second delete finds nothing.
	count, err = m.DeleteContextNodes(ctx, "ctx-del")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	nodes, err := m.GetContextNodes(ctx, "ctx-del")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestSearchContextNodes(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()

	_, err := m.ConvertContextToNodes(ctx, &types.Context{
		ID:      "ctx-se1",
		Content: "kubernetes deployment rollout strategies explained in detail.",
		Type:    types.ContextDocumentation,
	})
	require.NoError(t, err)
	_, err = m.ConvertContextToNodes(ctx, &types.Context{
		ID:      "ctx-se2",
		Content: "weekend trip planning and packing checklist.",
		Type:    types.ContextNote,
	})
	require.NoError(t, err)

	results, err := m.SearchContextNodes(ctx, "kubernetes", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ctx-se1", results[0].Meta.OriginalContextID)
}

func TestSearchContextNodesEmptyQuery(t *testing.T) {
	m := newTestManager(t, Options{})

	results, err := m.SearchContextNodes(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGetContextNodesByType(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()

	_, err := m.ConvertContextToNodes(ctx, &types.Context{
		ID:      "ctx-code",
		Content: "```go\nfunc main() {}\n```",
		Type:    types.ContextCode,
	})
	require.NoError(t, err)
	_, err = m.ConvertContextToNodes(ctx, &types.Context{
		ID:      "ctx-text",
		Content: "plain prose without structure.",
		Type:    types.ContextNote,
	})
	require.NoError(t, err)

	codeNodes, err := m.GetContextNodesByType(ctx, types.ChunkCode, 10)
	require.NoError(t, err)
	require.Len(t, codeNodes, 1)
	assert.Equal(t, "ctx-code", codeNodes[0].Meta.OriginalContextID)
}

func TestGetContextNodeStats(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()

	_, err := m.ConvertContextToNodes(ctx, &types.Context{
		ID:      "ctx-stats",
		Content: "a handful of plain words for counting.",
		Type:    types.ContextNote,
	})
	require.NoError(t, err)

	stats, err := m.GetContextNodeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalNodes)
	assert.Positive(t, stats.TotalTokens)
	assert.Equal(t, stats.TotalTokens, stats.AverageTokens)
	assert.Equal(t, 1, stats.NodesByType[string(types.ChunkText)])
}

func TestOptimizeContextNodes(t *testing.T) {
	local, err := embedder.NewLocalProvider(embedder.NewCache(100))
	require.NoError(t, err)
	m := newTestManager(t, Options{Embedder: local})
	ctx := context.Background()

	created, err := m.ConvertContextToNodes(ctx, &types.Context{
		ID:      "ctx-opt",
		Content: "content destined for the optimizer.",
		Type:    types.ContextNote,
	})
	require.NoError(t, err)

	count, err := m.OptimizeContextNodes(ctx, "ctx-opt")
	require.NoError(t, err)
	assert.Equal(t, len(created), count)

	node, err := m.GetContextNode(ctx, created[0].ID)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.True(t, node.Meta.IsOptimized)
}

func TestOptimizeWithoutEmbedder(t *testing.T) {
	m := newTestManager(t, Options{})

	_, err := m.OptimizeContextNodes(context.Background(), "whatever")
	assert.ErrorIs(t, err, ErrNoEmbedder)
}

func TestOptimizeUnknownContext(t *testing.T) {
	local, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)
	m := newTestManager(t, Options{Embedder: local})

	count, err := m.OptimizeContextNodes(context.Background(), "no-such-context")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
