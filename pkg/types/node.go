package types

import (
	"fmt"
	"time"
)

// ChunkType classifies the content of a context node
type ChunkType string

const (
	ChunkCode         ChunkType = "code"
	ChunkMarkdown     ChunkType = "markdown"
	ChunkWebContent   ChunkType = "web_content"
	ChunkConversation ChunkType = "conversation"
	ChunkMeeting      ChunkType = "meeting"
	ChunkText         ChunkType = "text"
)

// NodeMeta carries chunk positioning and lineage metadata for a node
type NodeMeta struct {
	ChunkIndex        int
	TotalChunks       int
	OriginalContextID string
	ChunkType         ChunkType
	IsOptimized       bool
}

// ContextNode is a persisted, metadata-enriched chunk derived from a Context.
// Node IDs are deterministic: "<contextID>_node_<chunkIndex>". Concatenating
// sibling contents in ChunkIndex order reproduces the parent content when the
// chunking strategy carries no overlap.
type ContextNode struct {
	ID            string
	Content       string
	TokenCount    int
	Importance    float64
	Summary       string
	Keywords      []string
	ChunkType     ChunkType
	Relationships []string
	Meta          NodeMeta
	ParentNodeID  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NodeID derives the deterministic node identifier for a chunk of a context
func NodeID(contextID string, chunkIndex int) string {
	return fmt.Sprintf("%s_node_%d", contextID, chunkIndex)
}

// Validate performs structural validation of the node
func (n *ContextNode) Validate() error {
	if n.ID == "" {
		return ErrMissingNodeID
	}
	if n.Content == "" {
		return ErrEmptyContent
	}
	if n.TokenCount < 0 {
		return ErrNegativeTokenCount
	}
	if n.Importance < 0 || n.Importance > 1 {
		return ErrImportanceRange
	}
	if n.Meta.ChunkIndex < 0 || n.Meta.ChunkIndex >= n.Meta.TotalChunks {
		return ErrChunkIndexRange
	}
	return nil
}

// NodeUpdate is a partial update applied to an existing node. Nil fields are
// left untouched; non-nil fields replace the stored value. Keywords and
// Relationships replace the whole list when non-nil.
type NodeUpdate struct {
	Content       *string
	TokenCount    *int
	Importance    *float64
	Summary       *string
	Keywords      []string
	Relationships []string
	IsOptimized   *bool
}

// IsZero reports whether the update carries no changes
func (u NodeUpdate) IsZero() bool {
	return u.Content == nil && u.TokenCount == nil && u.Importance == nil &&
		u.Summary == nil && u.Keywords == nil && u.Relationships == nil &&
		u.IsOptimized == nil
}
