package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// maxFileRecords bounds the JSON file; oldest records are dropped first.
const maxFileRecords = 1000

// FileHistory keeps records in a JSON file.
type FileHistory struct {
	filePath string
	records  []Record
	mu       sync.RWMutex
}

// OpenFile loads an existing history file or starts empty.
func OpenFile(path string) (*FileHistory, error) {
	fh := &FileHistory{filePath: path}
	if err := fh.load(); err != nil {
		return nil, err
	}
	return fh, nil
}

func (fh *FileHistory) load() error {
	data, err := os.ReadFile(fh.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &fh.records); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return nil
}

func (fh *FileHistory) Save(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	fh.mu.Lock()
	defer fh.mu.Unlock()

	fh.records = append(fh.records, rec)
	if len(fh.records) > maxFileRecords {
		fh.records = fh.records[len(fh.records)-maxFileRecords:]
	}
	return fh.flush()
}

// flush writes through a temp file so a crash never leaves half a file.
func (fh *FileHistory) flush() error {
	data, err := json.MarshalIndent(fh.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if dir := filepath.Dir(fh.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create history dir: %w", err)
		}
	}
	tmp := fh.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return os.Rename(tmp, fh.filePath)
}

func (fh *FileHistory) Recent(ctx context.Context, limit int) ([]Record, error) {
	limit = clampLimit(limit)
	fh.mu.RLock()
	out := make([]Record, len(fh.records))
	copy(out, fh.records)
	fh.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckedAt.After(out[j].CheckedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (fh *FileHistory) Stats(ctx context.Context) (Stats, error) {
	fh.mu.RLock()
	defer fh.mu.RUnlock()

	st := Stats{Total: len(fh.records), ByVerdict: map[string]int{}}
	for _, r := range fh.records {
		st.ByVerdict[r.Verdict]++
	}
	return st, nil
}

func (fh *FileHistory) Close() error { return nil }
