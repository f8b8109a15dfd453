package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/deusflow/veritas/internal/factcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

func sampleRecords() []Record {
	return []Record{
		NewRecord("https://a.example", factcheck.Result{Verdict: factcheck.VerdictVerified, Score: 0.1, TextScore: 0.1}, baseTime),
		NewRecord("https://b.example", factcheck.Result{Verdict: factcheck.VerdictCaution, Score: 0.6, TextScore: 0.5, ImageScore: 0.75, ImageAnalyzed: true}, baseTime.Add(time.Minute)),
		NewRecord("https://c.example", factcheck.Result{Verdict: factcheck.VerdictCaution, Score: 0.65, TextScore: 0.65}, baseTime.Add(2*time.Minute)),
	}
}

// exerciseHistory runs the shared contract against any backend.
func exerciseHistory(t *testing.T, h History) {
	t.Helper()
	ctx := context.Background()

	for _, r := range sampleRecords() {
		require.NoError(t, h.Save(ctx, r))
	}

	recent, err := h.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "https://c.example", recent[0].URL)
	assert.Equal(t, "https://b.example", recent[1].URL)
	assert.True(t, recent[1].ImageAnalyzed)
	assert.InDelta(t, 0.75, recent[1].ImageScore, 1e-9)
	assert.True(t, recent[1].CheckedAt.Equal(baseTime.Add(time.Minute)))

	st, err := h.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, map[string]int{"verified": 1, "caution": 2}, st.ByVerdict)

	assert.Error(t, h.Save(ctx, Record{}))
}

func TestFileHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	h, err := OpenFile(path)
	require.NoError(t, err)
	exerciseHistory(t, h)
	require.NoError(t, h.Close())

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	st, err := reopened.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
}

func TestSQLiteHistory(t *testing.T) {
	h, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer h.Close()
	exerciseHistory(t, h)
}

func TestOpen_SelectsBackend(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	h, err := Open(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, h)

	h, err = Open(ctx, filepath.Join(dir, "h.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileHistory{}, h)

	h, err = Open(ctx, "sqlite://"+filepath.Join(dir, "a.sqlite"))
	require.NoError(t, err)
	assert.IsType(t, &sqlHistory{}, h)
	h.Close()

	h, err = Open(ctx, filepath.Join(dir, "b.db"))
	require.NoError(t, err)
	assert.IsType(t, &sqlHistory{}, h)
	h.Close()
}

func TestNewRecord(t *testing.T) {
	r := NewRecord("u", factcheck.Result{Verdict: factcheck.VerdictHighRisk, Score: 0.9}, baseTime)
	assert.Len(t, r.ID, 36)
	assert.Equal(t, "high-risk", r.Verdict)
	assert.Equal(t, baseTime, r.CheckedAt)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, clampLimit(0))
	assert.Equal(t, MaxLimit, clampLimit(10_000))
	assert.Equal(t, 7, clampLimit(7))
}
