package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctxnode/ctxnode-mcp/internal/embedder"
	"github.com/ctxnode/ctxnode-mcp/internal/storage"
)

var versionInfo = VersionInfo{
	Version: "dev",
	Commit:  "none",
	Date:    "unknown",
}

// VersionInfo contains build information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// SetVersion sets the version information (called from main)
func SetVersion(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ctxnode %s\n", versionInfo.Version)
			fmt.Fprintf(out, "Commit:             %s\n", versionInfo.Commit)
			fmt.Fprintf(out, "Built:              %s\n", versionInfo.Date)
			fmt.Fprintf(out, "Build mode:         %s\n", storage.BuildMode)
			fmt.Fprintf(out, "SQLite driver:      %s\n", storage.DriverName)
			fmt.Fprintf(out, "Embedding provider: %s\n", embedder.DetectProvider())
		},
	}
}
