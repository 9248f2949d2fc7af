package types

// UnknownChunkType buckets nodes whose chunk type is missing or unrecognized
// in aggregated statistics
const UnknownChunkType = "unknown"

// NodeStats summarizes the stored node corpus. Computed by a full scan;
// intended for dashboards, not hot-path queries.
type NodeStats struct {
	TotalNodes    int
	NodesByType   map[string]int
	TotalTokens   int
	AverageTokens int
}
