package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctxnode/ctxnode-mcp/internal/config"
	"github.com/ctxnode/ctxnode-mcp/internal/mcp"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP server on stdio.

Runs ctxnode as an MCP (Model Context Protocol) server, enabling
LLM agents to convert, search, and manage context nodes.`,
		RunE: runServe,
		Example: `  # Start the server (typically launched by an MCP client)
  ctxnode serve

  # Configure in an MCP client:
  # {
  #   "mcpServers": {
  #     "ctxnode": {
  #       "command": "ctxnode",
  #       "args": ["serve"]
  #     }
  #   }
  # }`,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	server, err := mcp.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
