package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/deusflow/veritas/internal/logger"
)

var sqliteSchema = []string{
	`PRAGMA journal_mode=WAL;`,
	`PRAGMA busy_timeout=5000;`,
	`CREATE TABLE IF NOT EXISTS check_history (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		verdict TEXT NOT NULL,
		score REAL NOT NULL,
		text_score REAL NOT NULL,
		image_score REAL NOT NULL,
		image_analyzed BOOLEAN NOT NULL DEFAULT 0,
		checked_at DATETIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_check_history_checked_at ON check_history(checked_at);`,
}

// OpenSQLite opens (creating if needed) a SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (History, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer keeps SQLite from returning SQLITE_BUSY under concurrent saves
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	logger.Info("SQLite history opened", "path", path)
	return &sqlHistory{
		db:          db,
		placeholder: func(int) string { return "?" },
	}, nil
}
