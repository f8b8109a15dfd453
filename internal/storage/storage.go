// Package storage persists fact-check history.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/veritas/internal/factcheck"
)

const (
	DefaultLimit = 20
	MaxLimit     = 500
)

// Record is one stored check.
type Record struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	Verdict       string    `json:"verdict"`
	Score         float64   `json:"score"`
	TextScore     float64   `json:"text_score"`
	ImageScore    float64   `json:"image_score"`
	ImageAnalyzed bool      `json:"image_analyzed"`
	CheckedAt     time.Time `json:"checked_at"`
}

// Stats summarizes stored checks.
type Stats struct {
	Total     int            `json:"total"`
	ByVerdict map[string]int `json:"by_verdict"`
}

// History stores check results.
type History interface {
	Save(ctx context.Context, rec Record) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// NewRecord builds a record for a finished check.
func NewRecord(url string, res factcheck.Result, at time.Time) Record {
	return Record{
		ID:            uuid.NewString(),
		URL:           url,
		Verdict:       string(res.Verdict),
		Score:         res.Score,
		TextScore:     res.TextScore,
		ImageScore:    res.ImageScore,
		ImageAnalyzed: res.ImageAnalyzed,
		CheckedAt:     at.UTC(),
	}
}

// Open picks a backend from dsn:
//
//	postgres://... or postgresql://...  Postgres
//	sqlite://path or *.db              SQLite
//	anything else                      JSON file
//
// An empty dsn disables history and returns (nil, nil).
func Open(ctx context.Context, dsn string) (History, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasSuffix(dsn, ".db"):
		return OpenSQLite(ctx, dsn)
	default:
		return OpenFile(dsn)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func validate(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record has no id")
	}
	if rec.Verdict == "" {
		return fmt.Errorf("record %s has no verdict", rec.ID)
	}
	return nil
}
