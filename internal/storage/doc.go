// Package storage persists context nodes in SQLite.
//
// The schema is managed by semver-tracked migrations applied at open
// time. Node content, summaries, and keywords are mirrored into an
// FTS5 virtual table kept in sync by triggers, so text search runs
// against the index with bm25 ranking. When the index is unavailable
// (for example in a build without FTS5 support) searches fall back to
// a direct substring scan over the nodes table.
//
// Two SQLite drivers are supported via build tags: mattn/go-sqlite3
// for CGO builds and modernc.org/sqlite for pure Go builds. See
// build_cgo.go and build_purego.go.
//
// Embedding vectors produced by the optimizer are stored alongside
// nodes in the node_embeddings table as little-endian float32 blobs.
package storage
