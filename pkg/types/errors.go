package types

import "errors"

// Domain errors for validation
var (
	ErrNilContext         = errors.New("context is nil")
	ErrEmptyContent       = errors.New("content cannot be empty")
	ErrMissingNodeID      = errors.New("node ID is required")
	ErrNegativeTokenCount = errors.New("token count cannot be negative")
	ErrImportanceRange    = errors.New("importance must be between 0 and 1")
	ErrChunkIndexRange    = errors.New("chunk index must be within 0..totalChunks-1")
)
