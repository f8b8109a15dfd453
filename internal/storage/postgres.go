package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"

	"github.com/deusflow/veritas/internal/logger"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS check_history (
		id UUID PRIMARY KEY,
		url TEXT NOT NULL,
		verdict VARCHAR(16) NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		text_score DOUBLE PRECISION NOT NULL,
		image_score DOUBLE PRECISION NOT NULL,
		image_analyzed BOOLEAN NOT NULL DEFAULT FALSE,
		checked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_check_history_checked_at ON check_history(checked_at);
	CREATE INDEX IF NOT EXISTS idx_check_history_verdict ON check_history(verdict);
	`

// OpenPostgres connects with lib/pq and creates the schema if needed.
func OpenPostgres(ctx context.Context, connectionString string) (History, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("PostgreSQL history connected")
	return &sqlHistory{
		db:          db,
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}, nil
}
