package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ctxnode/ctxnode-mcp/internal/config"
	"github.com/ctxnode/ctxnode-mcp/internal/embedder"
	"github.com/ctxnode/ctxnode-mcp/internal/nodes"
	"github.com/ctxnode/ctxnode-mcp/internal/storage"
	"github.com/ctxnode/ctxnode-mcp/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "ctxnode-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	manager *nodes.Manager
	store   storage.Storage
	logger  *zap.Logger
}

// NewServer creates an MCP server wired to a SQLite-backed node store
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dbPath := cfg.DBPath
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.New(embedder.Config{
		Provider:  embedderProvider(cfg),
		Model:     cfg.EmbeddingModel,
		APIKey:    cfg.OpenAIKey,
		CacheSize: cfg.EmbeddingCacheSize,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	manager := nodes.NewManager(store, logger, nodes.Options{
		Workers: cfg.Workers,
		Strategy: types.ChunkingStrategy{
			MaxTokens:        cfg.MaxChunkTokens,
			OverlapChars:     cfg.OverlapChars,
			PreferCodeFences: true,
			PreferHeaders:    true,
			PreferParagraphs: true,
		},
		SearchLimit: cfg.SearchLimit,
		OpTimeout:   cfg.OpTimeout,
		Embedder:    emb,
	})

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		manager: manager,
		store:   store,
		logger:  logger,
	}
	s.registerTools()
	return s, nil
}

func embedderProvider(cfg *config.Config) string {
	if cfg.EmbeddingProvider != "" {
		return cfg.EmbeddingProvider
	}
	if cfg.OpenAIKey != "" {
		return embedder.ProviderOpenAI
	}
	return embedder.ProviderLocal
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	s.logger.Info("serving MCP on stdio",
		zap.String("server", ServerName),
		zap.String("version", ServerVersion))
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(convertContextTool(), s.handleConvertContext)
	s.mcp.AddTool(getContextNodesTool(), s.handleGetContextNodes)
	s.mcp.AddTool(searchNodesTool(), s.handleSearchNodes)
	s.mcp.AddTool(updateNodeTool(), s.handleUpdateNode)
	s.mcp.AddTool(deleteContextNodesTool(), s.handleDeleteContextNodes)
	s.mcp.AddTool(listNodesByTypeTool(), s.handleListNodesByType)
	s.mcp.AddTool(nodeStatsTool(), s.handleNodeStats)
	s.mcp.AddTool(optimizeContextTool(), s.handleOptimizeContext)
}
