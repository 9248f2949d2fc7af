package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// convertContextTool returns the tool definition for convert_context
func convertContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "convert_context",
		Description: "Convert a block of context text into persisted, searchable nodes",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "The context text to convert",
				},
				"context_id": map[string]interface{}{
					"type":        "string",
					"description": "Stable identifier for the context. Generated when omitted",
				},
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Context category",
					"enum":        []string{"code", "documentation", "research", "conversation", "meeting", "note"},
					"default":     "note",
				},
				"tags": map[string]interface{}{
					"type":        "array",
					"description": "Tags carried into node keywords",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"hints": map[string]interface{}{
					"type":        "object",
					"description": "Prioritization hints. Only the value 'high' affects scoring",
					"properties": map[string]interface{}{
						"complexity": map[string]interface{}{"type": "string"},
						"urgency":    map[string]interface{}{"type": "string"},
						"importance": map[string]interface{}{"type": "string"},
					},
				},
			},
			Required: []string{"content"},
		},
	}
}

// getContextNodesTool returns the tool definition for get_context_nodes
func getContextNodesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_context_nodes",
		Description: "Retrieve all nodes derived from a context, in chunk order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"context_id": map[string]interface{}{
					"type":        "string",
					"description": "Context identifier",
				},
			},
			Required: []string{"context_id"},
		},
	}
}

// searchNodesTool returns the tool definition for search_nodes
func searchNodesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_nodes",
		Description: "Full-text search over stored node content, summaries, and keywords",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// updateNodeTool returns the tool definition for update_node
func updateNodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_node",
		Description: "Apply a partial update to an existing node",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node_id": map[string]interface{}{
					"type":        "string",
					"description": "Node identifier",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Replacement content. Token count is recomputed",
				},
				"importance": map[string]interface{}{
					"type":        "number",
					"description": "Replacement importance score (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"summary": map[string]interface{}{
					"type":        "string",
					"description": "Replacement summary",
				},
				"keywords": map[string]interface{}{
					"type":        "array",
					"description": "Replacement keyword list",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"relationships": map[string]interface{}{
					"type":        "array",
					"description": "Replacement relationship list of node IDs",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"node_id"},
		},
	}
}

// deleteContextNodesTool returns the tool definition for delete_context_nodes
func deleteContextNodesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_context_nodes",
		Description: "Delete every node derived from a context",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"context_id": map[string]interface{}{
					"type":        "string",
					"description": "Context identifier",
				},
			},
			Required: []string{"context_id"},
		},
	}
}

// listNodesByTypeTool returns the tool definition for list_nodes_by_type
func listNodesByTypeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_nodes_by_type",
		Description: "List nodes of one chunk type, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"chunk_type": map[string]interface{}{
					"type":        "string",
					"description": "Chunk classification to filter by",
					"enum":        []string{"code", "markdown", "web_content", "conversation", "meeting", "text"},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results",
					"default":     100,
					"minimum":     1,
					"maximum":     500,
				},
			},
			Required: []string{"chunk_type"},
		},
	}
}

// nodeStatsTool returns the tool definition for node_stats
func nodeStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "node_stats",
		Description: "Aggregate statistics over all stored nodes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// optimizeContextTool returns the tool definition for optimize_context
func optimizeContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "optimize_context",
		Description: "Embed the nodes of a context and mark them optimized",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"context_id": map[string]interface{}{
					"type":        "string",
					"description": "Context identifier",
				},
			},
			Required: []string{"context_id"},
		},
	}
}
