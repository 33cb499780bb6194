package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
)

const memoryPath = ":memory:"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the database at dbPath. Use ":memory:"
// for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != memoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, historyError(err, "create history directory").WithContext("path", dbPath).Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, historyError(err, "open history database").WithContext("path", dbPath).Build()
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, historyError(err, "initialize history schema").WithContext("path", dbPath).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		build_id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		version TEXT,
		pages INTEGER NOT NULL,
		collections INTEGER NOT NULL,
		broken_links INTEGER NOT NULL,
		changed TEXT,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record adds or replaces a build entry.
func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := json.Marshal(e.Changed)
	if err != nil {
		return fmt.Errorf("marshal changed slugs: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO builds
		(build_id, started, duration_ms, outcome, version, pages, collections, broken_links, changed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.BuildID, e.Started.UnixMilli(), e.Duration.Milliseconds(), e.Outcome, e.Version,
		e.Pages, e.Collections, e.BrokenLinks, string(changed), e.Error,
	)
	if err != nil {
		return historyError(err, "insert build").WithContext("build_id", e.BuildID).Build()
	}
	return nil
}

// Recent returns the newest entries first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, started, duration_ms, outcome, version, pages, collections, broken_links, changed, error
		FROM builds ORDER BY started DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, historyError(err, "query builds").Build()
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			started, duration int64
			version, errText  sql.NullString
			changed           sql.NullString
		)
		if err := rows.Scan(&e.BuildID, &started, &duration, &e.Outcome, &version,
			&e.Pages, &e.Collections, &e.BrokenLinks, &changed, &errText); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		e.Started = time.UnixMilli(started).UTC()
		e.Duration = time.Duration(duration) * time.Millisecond
		e.Version = version.String
		e.Error = errText.String
		if changed.Valid && changed.String != "" && changed.String != "null" {
			if err := json.Unmarshal([]byte(changed.String), &e.Changed); err != nil {
				return nil, fmt.Errorf("unmarshal changed slugs: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func historyError(err error, msg string) *ferrors.ErrorBuilder {
	return ferrors.WrapError(err, ferrors.CategoryHistory, msg)
}
