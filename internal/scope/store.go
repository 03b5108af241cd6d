// Package scope persists the active analysis id. It is the process
// equivalent of the single browser localStorage key the web UI kept:
// one value, overwritten by each new upload, read by every view.
package scope

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bankview/internal/core"

	_ "modernc.org/sqlite"
)

// currentScopeName is the fixed key the active analysis id is stored
// under, matching the name the web UI used.
const currentScopeName = "current_analysis_id"

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the scope database at dbPath and
// brings its schema up to date.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Current returns the active analysis id, or core.ErrNoActiveAnalysis
// when nothing has been uploaded yet.
func (s *Store) Current(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT analysis_id FROM analysis_scope WHERE name = ?`, currentScopeName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.ErrNoActiveAnalysis
	}
	if err != nil {
		return "", fmt.Errorf("read analysis scope: %w", err)
	}
	if strings.TrimSpace(id) == "" {
		return "", core.ErrNoActiveAnalysis
	}
	return id, nil
}

// Set stores the active analysis id, replacing any previous one.
func (s *Store) Set(ctx context.Context, analysisID string) error {
	if strings.TrimSpace(analysisID) == "" {
		return fmt.Errorf("analysis id cannot be empty")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_scope (name, analysis_id, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			analysis_id = excluded.analysis_id,
			updated_at = CURRENT_TIMESTAMP`,
		currentScopeName, analysisID)
	if err != nil {
		return fmt.Errorf("store analysis scope: %w", err)
	}
	return nil
}

// Clear removes the active analysis id.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_scope WHERE name = ?`, currentScopeName)
	if err != nil {
		return fmt.Errorf("clear analysis scope: %w", err)
	}
	return nil
}
