// Package commands defines the ctxnode CLI.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctxnode/ctxnode-mcp/internal/config"
)

var (
	verbose bool
	quiet   bool
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ctxnode",
		Short: "Context node MCP server",
		Long: `ctxnode converts blocks of context text into persisted,
searchable nodes and serves them to LLM agents over the Model
Context Protocol.

Configuration comes from environment variables (CTXNODE_*) with an
optional .env file in the working directory.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; absence is not an error.
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error logging")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

// buildLogger constructs a zap logger writing to stderr. Stdout stays
// reserved for the MCP protocol.
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}

	zcfg := zap.NewProductionConfig()
	if verbose || cfg.Debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}
