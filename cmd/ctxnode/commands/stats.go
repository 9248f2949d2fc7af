package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ctxnode/ctxnode-mcp/internal/config"
	"github.com/ctxnode/ctxnode-mcp/internal/storage"
)

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print aggregate node statistics",
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database:       %s\n", cfg.DBPath)
	fmt.Fprintf(out, "Total nodes:    %d\n", stats.TotalNodes)
	fmt.Fprintf(out, "Total tokens:   %d\n", stats.TotalTokens)
	fmt.Fprintf(out, "Average tokens: %d\n", stats.AverageTokens)

	if len(stats.NodesByType) > 0 {
		fmt.Fprintln(out, "Nodes by type:")
		chunkTypes := make([]string, 0, len(stats.NodesByType))
		for chunkType := range stats.NodesByType {
			chunkTypes = append(chunkTypes, chunkType)
		}
		sort.Strings(chunkTypes)
		for _, chunkType := range chunkTypes {
			fmt.Fprintf(out, "  %-14s %d\n", chunkType, stats.NodesByType[chunkType])
		}
	}
	return nil
}
