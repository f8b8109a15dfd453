package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// sqlHistory serves both SQL backends; only the placeholder style and
// schema differ.
type sqlHistory struct {
	db          *sql.DB
	placeholder func(n int) string
}

func (h *sqlHistory) ph(n int) string { return h.placeholder(n) }

func (h *sqlHistory) Save(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO check_history
		(id, url, verdict, score, text_score, image_score, image_analyzed, checked_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
		h.ph(1), h.ph(2), h.ph(3), h.ph(4), h.ph(5), h.ph(6), h.ph(7), h.ph(8))

	_, err := h.db.ExecContext(ctx, query,
		rec.ID, rec.URL, rec.Verdict, rec.Score, rec.TextScore, rec.ImageScore, rec.ImageAnalyzed, rec.CheckedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save check: %w", err)
	}
	return nil
}

func (h *sqlHistory) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := fmt.Sprintf(`SELECT id, url, verdict, score, text_score, image_score, image_analyzed, checked_at
		FROM check_history ORDER BY checked_at DESC LIMIT %s`, h.ph(1))

	rows, err := h.db.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var checkedAt time.Time
		if err := rows.Scan(&r.ID, &r.URL, &r.Verdict, &r.Score, &r.TextScore, &r.ImageScore, &r.ImageAnalyzed, &checkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.CheckedAt = checkedAt.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (h *sqlHistory) Stats(ctx context.Context) (Stats, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT verdict, COUNT(*) FROM check_history GROUP BY verdict`)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	st := Stats{ByVerdict: map[string]int{}}
	for rows.Next() {
		var verdict string
		var n int
		if err := rows.Scan(&verdict, &n); err != nil {
			return Stats{}, fmt.Errorf("failed to scan stats row: %w", err)
		}
		st.ByVerdict[verdict] = n
		st.Total += n
	}
	return st, rows.Err()
}

func (h *sqlHistory) Close() error {
	return h.db.Close()
}
