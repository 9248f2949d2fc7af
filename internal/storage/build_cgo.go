//go:build cgo && !purego
// +build cgo,!purego

package storage

// This file is compiled when building with CGO available.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "fts5" ./...
//
// The CGO build provides:
//   - FTS5 full-text search support (build with the fts5 tag)
//   - Fast C implementation of SQLite
//   - Recommended for production deployments
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
