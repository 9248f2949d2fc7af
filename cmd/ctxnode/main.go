package main

import (
	"fmt"
	"os"

	"github.com/ctxnode/ctxnode-mcp/cmd/ctxnode/commands"
)

// Version information (set at build time)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	commands.SetVersion(version, commit, buildDate)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
