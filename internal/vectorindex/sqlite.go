package vectorindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteIndex persists entries in SQLite and ranks them in process.
type SQLiteIndex struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteIndex opens (or creates) the index at path. ":memory:" keeps it
// in a private in-memory database.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	// one connection so an in-memory database is not split across the pool
	db.SetMaxOpenConns(1)

	idx := &SQLiteIndex{db: db}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing index schema: %w", err)
	}
	return idx, nil
}

func (s *SQLiteIndex) initSchema() error {
	if _, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS answer_vectors (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		text TEXT NOT NULL,
		category TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		embedding BLOB NOT NULL
	);
	`); err != nil {
		return err
	}
	if err := s.addSessionColumn(); err != nil {
		return err
	}
	_, err := s.db.Exec(`
	CREATE INDEX IF NOT EXISTS idx_answer_vectors_category ON answer_vectors(category);
	CREATE INDEX IF NOT EXISTS idx_answer_vectors_session ON answer_vectors(session_id);
	`)
	return err
}

// addSessionColumn upgrades index files created before entries carried a
// session.
func (s *SQLiteIndex) addSessionColumn() error {
	rows, err := s.db.Query(`PRAGMA table_info(answer_vectors)`)
	if err != nil {
		return err
	}
	found := false
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dflt      sql.NullString
			primaryID int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &primaryID); err != nil {
			rows.Close()
			return err
		}
		if name == "session_id" {
			found = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if found {
		return nil
	}
	_, err = s.db.Exec(`ALTER TABLE answer_vectors ADD COLUMN session_id TEXT NOT NULL DEFAULT ''`)
	return err
}

func (s *SQLiteIndex) Upsert(ctx context.Context, e Entry) error {
	vec, err := json.Marshal(e.Vector)
	if err != nil {
		return fmt.Errorf("encoding embedding: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO answer_vectors (id, text, category, session_id, embedding) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET text = excluded.text, category = excluded.category,
			session_id = excluded.session_id, embedding = excluded.embedding
	`, e.ID, e.Text, e.Category, e.SessionID, vec)
	if err != nil {
		return fmt.Errorf("upserting vector %s: %w", e.ID, err)
	}
	return nil
}

func (s *SQLiteIndex) QueryNearest(ctx context.Context, vec []float32, k int, f Filter) ([]Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, text, category, session_id, embedding FROM answer_vectors`
	var args []any
	if f.SessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, f.SessionID)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.Text, &e.Category, &e.SessionID, &raw); err != nil {
			return nil, fmt.Errorf("scanning vector row: %w", err)
		}
		if err := json.Unmarshal(raw, &e.Vector); err != nil {
			continue // skip corrupted embeddings
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rank(entries, vec, k), nil
}

func (s *SQLiteIndex) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM answer_vectors WHERE id = ?`, id)
	return err
}

func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM answer_vectors`).Scan(&n)
	return n, err
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
