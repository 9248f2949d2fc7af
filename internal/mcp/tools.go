package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ctxnode/ctxnode-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNodeNotFound  = -32001 // Node does not exist
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// handleConvertContext handles the convert_context tool invocation
func (s *Server) handleConvertContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	content, ok := args["content"].(string)
	if !ok || content == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "content parameter is required", map[string]interface{}{
			"param":  "content",
			"reason": "missing or empty",
		})
	}

	c := &types.Context{
		ID:      getStringDefault(args, "context_id", ""),
		Content: content,
		Type:    types.ContextType(getStringDefault(args, "type", string(types.ContextNote))),
		Tags:    getStringSlice(args, "tags"),
	}
	if hints, ok := args["hints"].(map[string]interface{}); ok {
		c.Hints = types.ContextHints{
			Complexity: getStringDefault(hints, "complexity", ""),
			Urgency:    getStringDefault(hints, "urgency", ""),
			Importance: getStringDefault(hints, "importance", ""),
		}
	}

	created, err := s.manager.ConvertContextToNodes(ctx, c)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "conversion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"context_id":   c.ID,
		"node_count":   len(created),
		"total_chunks": len(created),
		"nodes":        nodesToMaps(created),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetContextNodes handles the get_context_nodes tool invocation
func (s *Server) handleGetContextNodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contextID, err := requireString(request, "context_id")
	if err != nil {
		return nil, err
	}

	found, err := s.manager.GetContextNodes(ctx, contextID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get nodes", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"context_id": contextID,
		"node_count": len(found),
		"nodes":      nodesToMaps(found),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchNodes handles the search_nodes tool invocation
func (s *Server) handleSearchNodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	found, err := s.manager.SearchContextNodes(ctx, query, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"query":        query,
		"result_count": len(found),
		"nodes":        nodesToMaps(found),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleUpdateNode handles the update_node tool invocation
func (s *Server) handleUpdateNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	nodeID, ok := args["node_id"].(string)
	if !ok || nodeID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "node_id parameter is required", map[string]interface{}{
			"param":  "node_id",
			"reason": "missing or empty",
		})
	}

	var update types.NodeUpdate
	if content, ok := args["content"].(string); ok {
		update.Content = &content
	}
	if importance, ok := args["importance"].(float64); ok {
		if importance < 0 || importance > 1 {
			return nil, newMCPError(ErrorCodeInvalidParams, "importance must be between 0.0 and 1.0", map[string]interface{}{
				"param": "importance",
				"value": importance,
			})
		}
		update.Importance = &importance
	}
	if summary, ok := args["summary"].(string); ok {
		update.Summary = &summary
	}
	update.Keywords = getStringSlice(args, "keywords")
	update.Relationships = getStringSlice(args, "relationships")

	if update.IsZero() {
		return nil, newMCPError(ErrorCodeInvalidParams, "no fields to update", nil)
	}

	node, err := s.manager.UpdateContextNode(ctx, nodeID, update)
	if err != nil {
		return nil, newMCPError(ErrorCodeNodeNotFound, "update failed", map[string]interface{}{
			"node_id": nodeID,
			"error":   err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"updated": true,
		"node":    nodeToMap(node),
	})), nil
}

// handleDeleteContextNodes handles the delete_context_nodes tool invocation
func (s *Server) handleDeleteContextNodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contextID, err := requireString(request, "context_id")
	if err != nil {
		return nil, err
	}

	count, err := s.manager.DeleteContextNodes(ctx, contextID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "delete failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"context_id":    contextID,
		"deleted_count": count,
	})), nil
}

// handleListNodesByType handles the list_nodes_by_type tool invocation
func (s *Server) handleListNodesByType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	chunkType, ok := args["chunk_type"].(string)
	if !ok || chunkType == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "chunk_type parameter is required", map[string]interface{}{
			"param":  "chunk_type",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 100)
	found, err := s.manager.GetContextNodesByType(ctx, types.ChunkType(chunkType), limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "listing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"chunk_type": chunkType,
		"node_count": len(found),
		"nodes":      nodesToMaps(found),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleNodeStats handles the node_stats tool invocation
func (s *Server) handleNodeStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.manager.GetContextNodeStats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to compute stats", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"total_nodes":    stats.TotalNodes,
		"nodes_by_type":  stats.NodesByType,
		"total_tokens":   stats.TotalTokens,
		"average_tokens": stats.AverageTokens,
	})), nil
}

// handleOptimizeContext handles the optimize_context tool invocation
func (s *Server) handleOptimizeContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contextID, err := requireString(request, "context_id")
	if err != nil {
		return nil, err
	}

	count, err := s.manager.OptimizeContextNodes(ctx, contextID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "optimization failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"context_id":      contextID,
		"optimized_count": count,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// requireString extracts a required string argument from a request
func requireString(request mcp.CallToolRequest, key string) (string, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// nodeToMap flattens a node for JSON tool responses
func nodeToMap(node *types.ContextNode) map[string]interface{} {
	return map[string]interface{}{
		"id":            node.ID,
		"content":       node.Content,
		"token_count":   node.TokenCount,
		"importance":    node.Importance,
		"summary":       node.Summary,
		"keywords":      node.Keywords,
		"chunk_type":    string(node.ChunkType),
		"relationships": node.Relationships,
		"metadata": map[string]interface{}{
			"chunk_index":         node.Meta.ChunkIndex,
			"total_chunks":        node.Meta.TotalChunks,
			"original_context_id": node.Meta.OriginalContextID,
			"chunk_type":          string(node.Meta.ChunkType),
			"is_optimized":        node.Meta.IsOptimized,
		},
		"parent_node_id": node.ParentNodeID,
	}
}

func nodesToMaps(nodes []*types.ContextNode) []map[string]interface{} {
	out := make([]map[string]interface{}, len(nodes))
	for i, node := range nodes {
		out[i] = nodeToMap(node)
	}
	return out
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter, returning nil when absent
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
