package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agenthands/consistencyguard/internal/model"
)

// SQLiteStore keeps answers and edges in two tables. Timestamps are stored as
// UTC unix nanoseconds so ordering is numeric.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS answers (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		answer TEXT NOT NULL,
		category TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		session_id TEXT NOT NULL DEFAULT 'default'
	);
	CREATE INDEX IF NOT EXISTS idx_answers_session ON answers(session_id, created_at);

	CREATE TABLE IF NOT EXISTS consistency_edges (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL REFERENCES answers(id) ON DELETE CASCADE,
		target_id TEXT NOT NULL REFERENCES answers(id) ON DELETE CASCADE,
		is_consistent INTEGER NOT NULL,
		explanation TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT 'default',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_edges_session ON consistency_edges(session_id);
	CREATE INDEX IF NOT EXISTS idx_edges_source ON consistency_edges(source_id);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON consistency_edges(target_id);
	`)
	return err
}

func (s *SQLiteStore) SaveAnswer(ctx context.Context, a model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answers (id, text, answer, category, created_at, session_id) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Text, a.Answer, a.Category, a.CreatedAt.UTC().UnixNano(), sessionOrDefault(a.SessionID))
	if err != nil {
		return fmt.Errorf("failed to save answer %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetAnswer(ctx context.Context, id string) (*model.Answer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, text, answer, category, created_at, session_id FROM answers WHERE id = ?`, id)
	a, err := scanAnswer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("answer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get answer %s: %w", id, err)
	}
	return &a, nil
}

func (s *SQLiteStore) ListAnswers(ctx context.Context, sessionID string) ([]model.Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, answer, category, created_at, session_id FROM answers
		 WHERE session_id = ? ORDER BY created_at, rowid`, sessionOrDefault(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	out := []model.Answer{}
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteAnswer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM consistency_edges WHERE source_id = ? OR target_id = ?`, id, id); err != nil {
		return fmt.Errorf("failed to delete edges of %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete answer %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("answer %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveEdge(ctx context.Context, e model.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO consistency_edges (id, source_id, target_id, is_consistent, explanation, session_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SourceID, e.TargetID, e.IsConsistent, e.Explanation, sessionOrDefault(e.SessionID), e.CreatedAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save edge %s: %w", e.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListEdges(ctx context.Context, sessionID string) ([]model.Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_id, target_id, is_consistent, explanation, session_id, created_at
		 FROM consistency_edges WHERE session_id = ? ORDER BY created_at, rowid`, sessionOrDefault(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	defer rows.Close()

	out := []model.Edge{}
	for rows.Next() {
		var e model.Edge
		var created int64
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.IsConsistent, &e.Explanation, &e.SessionID, &created); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnswer(r rowScanner) (model.Answer, error) {
	var a model.Answer
	var created int64
	if err := r.Scan(&a.ID, &a.Text, &a.Answer, &a.Category, &created, &a.SessionID); err != nil {
		return model.Answer{}, err
	}
	a.CreatedAt = time.Unix(0, created).UTC()
	return a, nil
}

func sessionOrDefault(id string) string {
	if id == "" {
		return model.DefaultSession
	}
	return id
}
