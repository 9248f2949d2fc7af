package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxnode/ctxnode-mcp/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		DBPath:             ":memory:",
		MaxChunkTokens:     1000,
		Workers:            2,
		OpTimeout:          10 * time.Second,
		SearchLimit:        20,
		EmbeddingProvider:  "local",
		EmbeddingCacheSize: 100,
	}
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.store.Close() })
	return s
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Arguments = args
	return request
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &parsed))
	return parsed
}

func TestServerInitialization(t *testing.T) {
	s := newTestServer(t)
	assert.NotNil(t, s.mcp)
	assert.NotNil(t, s.manager)
	assert.NotNil(t, s.store)
}

func TestHandleConvertContext(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleConvertContext(ctx, callRequest(map[string]interface{}{
		"content":    "A short note about connection pooling.",
		"context_id": "ctx-mcp-1",
		"type":       "note",
		"tags":       []interface{}{"database"},
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, "ctx-mcp-1", parsed["context_id"])
	assert.Equal(t, float64(1), parsed["node_count"])

	nodes := parsed["nodes"].([]interface{})
	node := nodes[0].(map[string]interface{})
	assert.Equal(t, "ctx-mcp-1_node_0", node["id"])
	assert.NotEmpty(t, node["summary"])
}

func TestHandleConvertContextMissingContent(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleConvertContext(context.Background(), callRequest(map[string]interface{}{}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleGetContextNodes(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleConvertContext(ctx, callRequest(map[string]interface{}{
		"content":    "retrievable content.",
		"context_id": "ctx-mcp-get",
	}))
	require.NoError(t, err)

	result, err := s.handleGetContextNodes(ctx, callRequest(map[string]interface{}{
		"context_id": "ctx-mcp-get",
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, float64(1), parsed["node_count"])
}

func TestHandleGetContextNodesUnknown(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleGetContextNodes(context.Background(), callRequest(map[string]interface{}{
		"context_id": "never-seen",
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, float64(0), parsed["node_count"])
}

func TestHandleSearchNodes(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleConvertContext(ctx, callRequest(map[string]interface{}{
		"content":    "terraform state locking pitfalls.",
		"context_id": "ctx-mcp-search",
	}))
	require.NoError(t, err)

	result, err := s.handleSearchNodes(ctx, callRequest(map[string]interface{}{
		"query": "terraform",
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, float64(1), parsed["result_count"])
}

func TestHandleSearchNodesEmptyQuery(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleSearchNodes(context.Background(), callRequest(map[string]interface{}{
		"query": "",
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)
}

func TestHandleSearchNodesBadLimit(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleSearchNodes(context.Background(), callRequest(map[string]interface{}{
		"query": "anything",
		"limit": float64(500),
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleUpdateNode(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleConvertContext(ctx, callRequest(map[string]interface{}{
		"content":    "original words.",
		"context_id": "ctx-mcp-upd",
	}))
	require.NoError(t, err)

	result, err := s.handleUpdateNode(ctx, callRequest(map[string]interface{}{
		"node_id":    "ctx-mcp-upd_node_0",
		"importance": float64(0.95),
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, true, parsed["updated"])
	node := parsed["node"].(map[string]interface{})
	assert.InDelta(t, 0.95, node["importance"].(float64), 0.0001)
}

func TestHandleUpdateNodeMissing(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleUpdateNode(context.Background(), callRequest(map[string]interface{}{
		"node_id": "missing_node_0",
		"summary": "new summary",
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeNodeNotFound, mcpErr.Code)
}

func TestHandleUpdateNodeNoFields(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleUpdateNode(context.Background(), callRequest(map[string]interface{}{
		"node_id": "some_node_0",
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleDeleteContextNodes(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleConvertContext(ctx, callRequest(map[string]interface{}{
		"content":    "to be removed.",
		"context_id": "ctx-mcp-del",
	}))
	require.NoError(t, err)

	result, err := s.handleDeleteContextNodes(ctx, callRequest(map[string]interface{}{
		"context_id": "ctx-mcp-del",
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, float64(1), parsed["deleted_count"])

	// Second delete reports zero.
	result, err = s.handleDeleteContextNodes(ctx, callRequest(map[string]interface{}{
		"context_id": "ctx-mcp-del",
	}))
	require.NoError(t, err)
	parsed = resultJSON(t, result)
	assert.Equal(t, float64(0), parsed["deleted_count"])
}

func TestHandleListNodesByType(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleConvertContext(ctx, callRequest(map[string]interface{}{
		"content":    "```go\nfunc main() {}\n```",
		"context_id": "ctx-mcp-code",
		"type":       "code",
	}))
	require.NoError(t, err)

	result, err := s.handleListNodesByType(ctx, callRequest(map[string]interface{}{
		"chunk_type": "code",
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, float64(1), parsed["node_count"])
}

func TestHandleNodeStats(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleConvertContext(ctx, callRequest(map[string]interface{}{
		"content":    "counting words for statistics.",
		"context_id": "ctx-mcp-stats",
	}))
	require.NoError(t, err)

	result, err := s.handleNodeStats(ctx, callRequest(nil))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, float64(1), parsed["total_nodes"])
	assert.Positive(t, parsed["total_tokens"].(float64))
}

func TestHandleOptimizeContext(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleConvertContext(ctx, callRequest(map[string]interface{}{
		"content":    "content to optimize.",
		"context_id": "ctx-mcp-opt",
	}))
	require.NoError(t, err)

	result, err := s.handleOptimizeContext(ctx, callRequest(map[string]interface{}{
		"context_id": "ctx-mcp-opt",
	}))
	require.NoError(t, err)

	parsed := resultJSON(t, result)
	assert.Equal(t, float64(1), parsed["optimized_count"])
}
