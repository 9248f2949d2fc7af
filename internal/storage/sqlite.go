package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ctxnode/ctxnode-mcp/pkg/types"
)

// querier abstracts *sql.DB and *sql.Tx so helpers can run inside or
// outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLiteStorage implements Storage backed by SQLite with an FTS5
// full-text index over node content.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens (creating if necessary) the database at path
// and applies any pending migrations. Use ":memory:" for an ephemeral
// in-memory store.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent callers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Pragmas go through Exec so both drivers handle them the same way.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStorage{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// InsertNodes stores a batch of nodes in a single transaction.
func (s *SQLiteStorage) InsertNodes(ctx context.Context, nodes []*types.ContextNode) error {
	if len(nodes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, node := range nodes {
		if err := insertNodeWithQuerier(ctx, tx, node); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", node.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertNodeWithQuerier(ctx context.Context, q querier, node *types.ContextNode) error {
	if err := node.Validate(); err != nil {
		return err
	}

	keywords, err := json.Marshal(node.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}
	relationships, err := json.Marshal(node.Relationships)
	if err != nil {
		return fmt.Errorf("failed to marshal relationships: %w", err)
	}

	now := time.Now().UTC()
	createdAt := node.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := node.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO nodes (
			id, content, token_count, importance, summary, keywords,
			chunk_type, relationships, context_id, chunk_index,
			total_chunks, is_optimized, parent_node_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		node.ID, node.Content, node.TokenCount, node.Importance,
		node.Summary, string(keywords), string(node.ChunkType),
		string(relationships), node.Meta.OriginalContextID,
		node.Meta.ChunkIndex, node.Meta.TotalChunks,
		node.Meta.IsOptimized, node.ParentNodeID,
		createdAt, updatedAt,
	)
	return err
}

// GetNode retrieves a single node by ID.
func (s *SQLiteStorage) GetNode(ctx context.Context, nodeID string) (*types.ContextNode, error) {
	row := s.db.QueryRowContext(ctx, selectNodeSQL+` WHERE id = ?`, nodeID)
	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return node, nil
}

// ListNodesByContext returns all nodes for a context ordered by chunk index.
func (s *SQLiteStorage) ListNodesByContext(ctx context.Context, contextID string) ([]*types.ContextNode, error) {
	rows, err := s.db.QueryContext(ctx,
		selectNodeSQL+` WHERE context_id = ? ORDER BY chunk_index`, contextID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// UpdateNode applies a partial update and returns the refreshed row.
func (s *SQLiteStorage) UpdateNode(ctx context.Context, nodeID string, update types.NodeUpdate) (*types.ContextNode, error) {
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 9)

	if update.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *update.Content)
	}
	if update.TokenCount != nil {
		sets = append(sets, "token_count = ?")
		args = append(args, *update.TokenCount)
	}
	if update.Importance != nil {
		sets = append(sets, "importance = ?")
		args = append(args, *update.Importance)
	}
	if update.Summary != nil {
		sets = append(sets, "summary = ?")
		args = append(args, *update.Summary)
	}
	if update.Keywords != nil {
		keywords, err := json.Marshal(update.Keywords)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal keywords: %w", err)
		}
		sets = append(sets, "keywords = ?")
		args = append(args, string(keywords))
	}
	if update.Relationships != nil {
		relationships, err := json.Marshal(update.Relationships)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal relationships: %w", err)
		}
		sets = append(sets, "relationships = ?")
		args = append(args, string(relationships))
	}
	if update.IsOptimized != nil {
		sets = append(sets, "is_optimized = ?")
		args = append(args, *update.IsOptimized)
	}
	if len(sets) == 0 {
		return s.GetNode(ctx, nodeID)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, nodeID)

	res, err := s.db.ExecContext(ctx,
		"UPDATE nodes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update node: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetNode(ctx, nodeID)
}

// DeleteNodesByContext removes all nodes derived from a context.
func (s *SQLiteStorage) DeleteNodesByContext(ctx context.Context, contextID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE context_id = ?`, contextID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete nodes: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted nodes: %w", err)
	}
	return int(affected), nil
}

// SearchText runs an FTS5 query ranked by bm25, falling back to a
// case-insensitive substring scan when the full-text index is
// unavailable. Fallback results carry no meaningful ranking.
func (s *SQLiteStorage) SearchText(ctx context.Context, query string, limit int) ([]*types.ContextNode, error) {
	if limit <= 0 {
		limit = 20
	}

	ftsQuery := sanitizeFTSQuery(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.content, n.token_count, n.importance, n.summary,
		       n.keywords, n.chunk_type, n.relationships, n.context_id,
		       n.chunk_index, n.total_chunks, n.is_optimized,
		       n.parent_node_id, n.created_at, n.updated_at
		FROM nodes_fts f
		JOIN nodes n ON n.rowid = f.rowid
		WHERE nodes_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return s.searchFallback(ctx, query, limit)
	}
	defer rows.Close()

	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan search results: %w", err)
	}
	return nodes, nil
}

// searchFallback scans node content directly when FTS is unavailable.
func (s *SQLiteStorage) searchFallback(ctx context.Context, query string, limit int) ([]*types.ContextNode, error) {
	rows, err := s.db.QueryContext(ctx,
		selectNodeSQL+`
		WHERE instr(lower(content), lower(?)) > 0
		   OR instr(lower(summary), lower(?)) > 0
		   OR instr(lower(keywords), lower(?)) > 0
		ORDER BY created_at DESC
		LIMIT ?`, query, query, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// ListNodesByType returns nodes of the given chunk type, newest first.
func (s *SQLiteStorage) ListNodesByType(ctx context.Context, chunkType string, limit int) ([]*types.ContextNode, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		selectNodeSQL+` WHERE chunk_type = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		chunkType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes by type: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// Stats returns aggregate counts over all stored nodes.
func (s *SQLiteStorage) Stats(ctx context.Context) (*types.NodeStats, error) {
	stats := &types.NodeStats{NodesByType: make(map[string]int)}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(token_count), 0) FROM nodes`,
	).Scan(&stats.TotalNodes, &stats.TotalTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate nodes: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(chunk_type, ''), ?), COUNT(*)
		FROM nodes GROUP BY 1`, types.UnknownChunkType)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate node types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chunkType string
		var count int
		if err := rows.Scan(&chunkType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		stats.NodesByType[chunkType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read type counts: %w", err)
	}

	if stats.TotalNodes > 0 {
		stats.AverageTokens = int(math.Round(float64(stats.TotalTokens) / float64(stats.TotalNodes)))
	}
	return stats, nil
}

// UpsertEmbedding stores or replaces the embedding for a node.
func (s *SQLiteStorage) UpsertEmbedding(ctx context.Context, emb *NodeEmbedding) error {
	blob, err := serializeVector(emb.Vector)
	if err != nil {
		return fmt.Errorf("failed to serialize vector: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO node_embeddings (node_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model,
			created_at = excluded.created_at`,
		emb.NodeID, blob, len(emb.Vector), emb.Provider, emb.Model, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

// GetEmbedding retrieves the stored embedding for a node.
func (s *SQLiteStorage) GetEmbedding(ctx context.Context, nodeID string) (*NodeEmbedding, error) {
	emb := &NodeEmbedding{NodeID: nodeID}
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT vector, dimension, provider, model, created_at
		FROM node_embeddings WHERE node_id = ?`, nodeID,
	).Scan(&blob, &emb.Dimension, &emb.Provider, &emb.Model, &emb.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}

	emb.Vector, err = deserializeVector(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize vector: %w", err)
	}
	return emb, nil
}

const selectNodeSQL = `
	SELECT id, content, token_count, importance, summary, keywords,
	       chunk_type, relationships, context_id, chunk_index,
	       total_chunks, is_optimized, parent_node_id,
	       created_at, updated_at
	FROM nodes`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row rowScanner) (*types.ContextNode, error) {
	node := &types.ContextNode{}
	var keywords, relationships, chunkType string
	var parentNodeID sql.NullString

	err := row.Scan(
		&node.ID, &node.Content, &node.TokenCount, &node.Importance,
		&node.Summary, &keywords, &chunkType, &relationships,
		&node.Meta.OriginalContextID, &node.Meta.ChunkIndex,
		&node.Meta.TotalChunks, &node.Meta.IsOptimized,
		&parentNodeID, &node.CreatedAt, &node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	node.ChunkType = types.ChunkType(chunkType)
	node.Meta.ChunkType = node.ChunkType
	if parentNodeID.Valid {
		node.ParentNodeID = parentNodeID.String
	}
	if err := json.Unmarshal([]byte(keywords), &node.Keywords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(relationships), &node.Relationships); err != nil {
		return nil, fmt.Errorf("failed to unmarshal relationships: %w", err)
	}
	if node.Keywords == nil {
		node.Keywords = []string{}
	}
	if node.Relationships == nil {
		node.Relationships = []string{}
	}
	return node, nil
}

func scanNodes(rows *sql.Rows) ([]*types.ContextNode, error) {
	var nodes []*types.ContextNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// sanitizeFTSQuery quotes each term so user input cannot inject FTS5
// query syntax.
func sanitizeFTSQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ReplaceAll(term, `"`, `""`)
		quoted = append(quoted, `"`+term+`"`)
	}
	return strings.Join(quoted, " ")
}
