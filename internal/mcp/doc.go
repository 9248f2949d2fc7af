// Package mcp exposes the context node system as an MCP (Model
// Context Protocol) server over stdio.
//
// # Tools
//
// The server registers eight tools:
//
//   - convert_context: chunk a block of text and persist one node per
//     chunk. Accepts an optional context_id (generated when omitted),
//     a context type, tags, and prioritization hints.
//   - get_context_nodes: return every node of a context in chunk
//     order. Unknown contexts yield an empty list.
//   - search_nodes: full-text search over node content, summaries,
//     and keywords, ranked by bm25 when the FTS index is available.
//   - update_node: partial update of content, importance, summary,
//     keywords, or relationships. Content changes recompute the
//     token count. Updating a missing node is an error.
//   - delete_context_nodes: remove every node of a context and report
//     the count. Deleting an unknown context reports zero.
//   - list_nodes_by_type: list nodes of one chunk classification,
//     newest first.
//   - node_stats: aggregate totals and per-type counts.
//   - optimize_context: embed node content and mark nodes optimized.
//
// # Errors
//
// Handlers return MCPError values carrying JSON-RPC style codes:
// -32602 for invalid parameters, -32603 for internal failures,
// -32001 for missing nodes, and -32004 for empty queries. The
// mcp-go framework encodes these onto the wire.
//
// # Responses
//
// All tool results are indented JSON text blocks. Nodes are flattened
// with their metadata nested under a "metadata" key.
package mcp
