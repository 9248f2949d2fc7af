// Package types provides shared type definitions for the ctxnode MCP server.
//
// This package defines domain types used across multiple components,
// including contexts, context nodes, chunking strategies, and corpus stats.
//
// # Core Types
//
// Context represents a unit of captured text (conversation, code, document)
// supplied by the calling application:
//
//	ctx := &types.Context{
//	    ID:      "ctx-42",
//	    Content: transcript,
//	    Type:    types.ContextConversation,
//	    Tags:    []string{"standup", "planning"},
//	}
//
// ContextNode represents a persisted, metadata-enriched chunk derived from a
// Context. Node identifiers are deterministic, derived from the parent context
// ID plus the chunk index:
//
//	types.NodeID("ctx-42", 0) // "ctx-42_node_0"
//
// For a context split into N pieces, exactly N sibling nodes exist with
// contiguous ChunkIndex values 0..N-1 and TotalChunks == N on each. With a
// zero-overlap strategy, concatenating sibling contents in ChunkIndex order
// reproduces the parent content exactly.
//
// # Chunking Strategy
//
// ChunkingStrategy is a configuration value, supplied by the caller or
// defaulted via DefaultStrategy. Boundary preferences are tried in fixed
// priority order: code fence edges, markdown headers, paragraph breaks,
// sentence breaks, then a hard cut at the token budget.
//
// # Validation
//
// Domain types implement validation methods to ensure data integrity:
//
//	if err := node.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// Importance scores are normalized to [0, 1], with higher values indicating
// higher retrieval priority.
package types
