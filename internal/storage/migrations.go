package storage

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
)

type migration struct {
	version     string
	description string
	sql         string
}

// migrations are applied in order. Versions must be valid semver and
// strictly increasing.
var migrations = []migration{
	{
		version:     "1.0.0",
		description: "create nodes table and indexes",
		sql: `
			CREATE TABLE IF NOT EXISTS nodes (
				id TEXT PRIMARY KEY,
				content TEXT NOT NULL,
				token_count INTEGER NOT NULL DEFAULT 0,
				importance REAL NOT NULL DEFAULT 0.5,
				summary TEXT NOT NULL DEFAULT '',
				keywords TEXT NOT NULL DEFAULT '[]',
				chunk_type TEXT NOT NULL DEFAULT '',
				relationships TEXT NOT NULL DEFAULT '[]',
				context_id TEXT NOT NULL,
				chunk_index INTEGER NOT NULL,
				total_chunks INTEGER NOT NULL,
				is_optimized BOOLEAN NOT NULL DEFAULT 0,
				parent_node_id TEXT,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);

			CREATE INDEX IF NOT EXISTS idx_nodes_context ON nodes(context_id);
			CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(chunk_type);
			CREATE INDEX IF NOT EXISTS idx_nodes_created ON nodes(created_at);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_sibling
				ON nodes(context_id, chunk_index);
		`,
	},
	{
		version:     "1.1.0",
		description: "create full-text index over node content",
		sql: `
			CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
				content,
				summary,
				keywords,
				content='nodes',
				content_rowid='rowid'
			);

			CREATE TRIGGER IF NOT EXISTS nodes_fts_insert AFTER INSERT ON nodes BEGIN
				INSERT INTO nodes_fts(rowid, content, summary, keywords)
				VALUES (new.rowid, new.content, new.summary, new.keywords);
			END;

			CREATE TRIGGER IF NOT EXISTS nodes_fts_delete AFTER DELETE ON nodes BEGIN
				INSERT INTO nodes_fts(nodes_fts, rowid, content, summary, keywords)
				VALUES ('delete', old.rowid, old.content, old.summary, old.keywords);
			END;

			CREATE TRIGGER IF NOT EXISTS nodes_fts_update AFTER UPDATE ON nodes BEGIN
				INSERT INTO nodes_fts(nodes_fts, rowid, content, summary, keywords)
				VALUES ('delete', old.rowid, old.content, old.summary, old.keywords);
				INSERT INTO nodes_fts(rowid, content, summary, keywords)
				VALUES (new.rowid, new.content, new.summary, new.keywords);
			END;
		`,
	},
	{
		version:     "1.2.0",
		description: "create node embeddings table",
		sql: `
			CREATE TABLE IF NOT EXISTS node_embeddings (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				node_id TEXT NOT NULL UNIQUE,
				vector BLOB NOT NULL,
				dimension INTEGER NOT NULL,
				provider TEXT NOT NULL,
				model TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (node_id) REFERENCES nodes(id) ON DELETE CASCADE
			);

			CREATE INDEX IF NOT EXISTS idx_embeddings_node
				ON node_embeddings(node_id);
		`,
	},
}

// migrate applies any migrations newer than the recorded schema version.
func (s *SQLiteStorage) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	current, err := s.currentVersion()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		v, err := semver.NewVersion(m.version)
		if err != nil {
			return fmt.Errorf("invalid migration version %q: %w", m.version, err)
		}
		if current != nil && !v.GreaterThan(current) {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", m.version, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
			m.version, m.description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.version, err)
		}
	}
	return nil
}

// currentVersion returns the highest applied migration version, or nil
// when no migrations have run.
func (s *SQLiteStorage) currentVersion() (*semver.Version, error) {
	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration history: %w", err)
	}
	defer rows.Close()

	var highest *semver.Version
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid recorded version %q: %w", raw, err)
		}
		if highest == nil || v.GreaterThan(highest) {
			highest = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read migration versions: %w", err)
	}
	return highest, nil
}
