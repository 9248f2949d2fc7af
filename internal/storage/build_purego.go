//go:build !cgo || purego
// +build !cgo purego

package storage

// This file is compiled when building without CGO or with the purego tag.
//
// Build command:
//   CGO_ENABLED=0 go build -tags "purego" ./...
//
// The pure Go implementation provides:
//   - No C compiler required
//   - Cross-platform compilation
//   - FTS5 support built in
//   - Suitable for development and smaller deployments
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
