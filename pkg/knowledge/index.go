// Package knowledge indexes generated documentation in SQLite FTS5 and
// answers questions about the indexed projects.
package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/logx"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/store"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/tokens"
)

// Chunking defaults.
const (
	DefaultChunkSize = 1500
	DefaultOverlap   = 200
)

// ErrEmptyIndex is returned when searching an index that was never built.
var ErrEmptyIndex = errors.New("knowledge index is empty; run 'narrator index' first")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	title         TEXT PRIMARY KEY,
	documentation TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	title,
	content,
	seq UNINDEXED,
	tokenize = 'porter unicode61'
);

CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Index is a full-text index over successful documentation results.
type Index struct {
	db           *sql.DB
	path         string
	chunkSize    int
	chunkOverlap int
	logger       *logx.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithChunking overrides chunk size and overlap, in runes.
func WithChunking(size, overlap int) Option {
	return func(ix *Index) {
		if size > 0 {
			ix.chunkSize = size
		}
		if overlap >= 0 && overlap < ix.chunkSize {
			ix.chunkOverlap = overlap
		}
	}
}

// Open opens or creates the index database at path.
func Open(path string, opts ...Option) (*Index, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ix := &Index{
		db:           db,
		path:         path,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultOverlap,
		logger:       logx.NewLogger("knowledge"),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// Close closes the database.
func (ix *Index) Close() error {
	if err := ix.db.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	return nil
}

// Stats describes a completed build.
type Stats struct {
	Documents int
	Skipped   int // failed results left out
	Chunks    int
	Tokens    int
}

// Build replaces the index contents with the successful results.
func (ix *Index) Build(ctx context.Context, results []store.DocumentationResult) (*Stats, error) {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is safe to call after commit

	for _, stmt := range []string{"DELETE FROM documents", "DELETE FROM chunks_fts"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to clear index: %w", err)
		}
	}

	docStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO documents (title, documentation) VALUES (?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare document statement: %w", err)
	}
	defer docStmt.Close() //nolint:errcheck // Close in defer is safe

	chunkStmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks_fts (title, content, seq) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare chunk statement: %w", err)
	}
	defer chunkStmt.Close() //nolint:errcheck // Close in defer is safe

	stats := &Stats{}
	for _, r := range results {
		if r.Failed() || r.Documentation == store.FailedPlaceholder {
			stats.Skipped++
			continue
		}
		if _, err := docStmt.ExecContext(ctx, r.Title, r.Documentation); err != nil {
			return nil, fmt.Errorf("failed to insert document %q: %w", r.Title, err)
		}
		for seq, chunk := range Split(r.Documentation, ix.chunkSize, ix.chunkOverlap) {
			if _, err := chunkStmt.ExecContext(ctx, r.Title, chunk, seq); err != nil {
				return nil, fmt.Errorf("failed to insert chunk %d of %q: %w", seq, r.Title, err)
			}
			stats.Chunks++
			stats.Tokens += tokens.Count(chunk)
		}
		stats.Documents++
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO index_meta (key, value) VALUES ('built_at', ?)`,
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return nil, fmt.Errorf("failed to record build time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit index: %w", err)
	}
	ix.logger.Info("indexed %d documents as %d chunks (%d tokens), skipped %d failed", stats.Documents, stats.Chunks, stats.Tokens, stats.Skipped)
	return stats, nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Document is one indexed project.
type Document struct {
	Title         string
	Documentation string
}

// Hit is one matching chunk. Lower Rank is better (bm25).
type Hit struct {
	Title   string
	Content string
	Seq     int
	Rank    float64
}

// FindTitles returns documents whose title contains query, ignoring case.
func (ix *Index) FindTitles(ctx context.Context, query string, limit int) ([]Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := ix.db.QueryContext(ctx, `
		SELECT title, documentation
		FROM documents
		WHERE instr(lower(title), lower(?)) > 0
		ORDER BY length(title), title
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("title lookup failed: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Close in defer is safe

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Title, &d.Documentation); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

// Search ranks chunks against the key terms of query with bm25.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	match := MatchExpression(query)
	if match == "" {
		return nil, nil
	}
	if k <= 0 {
		k = 3
	}

	rows, err := ix.db.QueryContext(ctx, `
		SELECT title, content, seq, bm25(chunks_fts) AS rank
		FROM chunks_fts
		WHERE chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, match, k)
	if err != nil {
		return nil, fmt.Errorf("FTS query failed: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Close in defer is safe

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Title, &h.Content, &h.Seq, &h.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return hits, nil
}
