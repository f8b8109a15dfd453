package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deusflow/veritas/internal/cache"
	"github.com/deusflow/veritas/internal/metrics"
	"github.com/deusflow/veritas/internal/ratelimit"
	"github.com/deusflow/veritas/internal/retry"
	"github.com/deusflow/veritas/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	article *scraper.Article
	err     error
	errs    []error // returned in order before err/article
	calls   int
}

func (f *fakeExtractor) Extract(ctx context.Context, url string) (*scraper.Article, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	a := *f.article
	a.URL = url
	return &a, nil
}

type fakeAbstractor struct {
	out string
	err error
}

func (f *fakeAbstractor) Summarize(ctx context.Context, title, text string) (string, error) {
	return f.out, f.err
}

func newService(ex Extractor, opts ...Option) *Service {
	s := NewService(ex, 2, opts...)
	s.metrics = metrics.New()
	return s
}

func TestSummarize_EmptyURL(t *testing.T) {
	s := newService(&fakeExtractor{})
	_, err := s.Summarize(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestSummarize_Full(t *testing.T) {
	published := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	ex := &fakeExtractor{article: &scraper.Article{
		Title:       "Comet",
		Authors:     []string{"Jane Doe", "John Roe"},
		PublishDate: &published,
		Text:        "A comet passed. It was bright. People watched.",
	}}
	s := newService(ex)

	got, err := s.Summarize(context.Background(), "https://example.com/c")
	require.NoError(t, err)
	assert.Equal(t, "Comet", got.Title)
	assert.Equal(t, "Jane Doe, John Roe", got.Authors)
	assert.Equal(t, "2024-03-05", got.PublishDate)
	assert.NotEmpty(t, got.Summary)
}

func TestSummarize_Fallbacks(t *testing.T) {
	s := newService(&fakeExtractor{article: &scraper.Article{}})

	got, err := s.Summarize(context.Background(), "https://example.com/x")
	require.NoError(t, err)
	assert.Equal(t, &Result{
		Title:       "No Title Extracted",
		Authors:     "N/A",
		Summary:     "Could not generate summary.",
		PublishDate: "N/A",
	}, got)
}

func TestSummarize_PrefersAbstractor(t *testing.T) {
	ex := &fakeExtractor{article: &scraper.Article{Title: "t", Text: "One. Two. Three."}}

	s := newService(ex, WithAbstractor(&fakeAbstractor{out: "Model summary."}))
	got, err := s.Summarize(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, "Model summary.", got.Summary)

	s = newService(ex, WithAbstractor(&fakeAbstractor{err: errors.New("quota")}))
	got, err = s.Summarize(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, "One.\nTwo.", got.Summary)
}

func TestSummarize_ExtractError(t *testing.T) {
	s := newService(&fakeExtractor{err: scraper.ErrNoContent})
	_, err := s.Summarize(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, scraper.ErrNoContent)
	assert.Equal(t, int64(1), s.metrics.GetStats()["summary_failures"])
}

func TestSummarize_Cached(t *testing.T) {
	c := cache.New()
	defer c.Close()
	ex := &fakeExtractor{article: &scraper.Article{Title: "t", Text: "One."}}
	s := newService(ex, WithCache(c, time.Minute))

	_, err := s.Summarize(context.Background(), "u")
	require.NoError(t, err)
	_, err = s.Summarize(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, 1, ex.calls)
}

func TestSummarize_RetriesTransientFetch(t *testing.T) {
	ex := &fakeExtractor{
		errs:    []error{&scraper.FetchError{URL: "https://example.com", StatusCode: 503}},
		article: &scraper.Article{Title: "t", Text: "One."},
	}
	s := newService(ex, WithRetry(retry.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}))

	got, err := s.Summarize(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
	assert.Equal(t, 2, ex.calls)
}

func TestSummarize_FatalFetchNotRetried(t *testing.T) {
	ex := &fakeExtractor{err: &scraper.FetchError{URL: "https://example.com", StatusCode: 404}}
	s := newService(ex, WithRetry(retry.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}))

	_, err := s.Summarize(context.Background(), "https://example.com")
	var fe *scraper.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 404, fe.StatusCode)
	assert.Equal(t, 1, ex.calls)
}

func TestSummarize_SpentBudgetSkipsAbstractor(t *testing.T) {
	budget := ratelimit.NewBudget(map[string]int{"gemini": 1})
	require.NoError(t, budget.Use("gemini"))

	ex := &fakeExtractor{article: &scraper.Article{Title: "t", Text: "One. Two. Three."}}
	s := newService(ex, WithAbstractor(&fakeAbstractor{out: "Model summary."}), WithBudget(budget))

	got, err := s.Summarize(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, "One.\nTwo.", got.Summary)
}

func TestSummarize_CacheHitCreditsBudget(t *testing.T) {
	c := cache.New()
	defer c.Close()
	budget := ratelimit.NewBudget(map[string]int{"gemini": 10})
	ex := &fakeExtractor{article: &scraper.Article{Title: "t", Text: "One."}}
	s := newService(ex,
		WithAbstractor(&fakeAbstractor{out: "Model summary."}),
		WithBudget(budget),
		WithCache(c, time.Minute),
	)

	for range 3 {
		_, err := s.Summarize(context.Background(), "u")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, budget.Stats()["gemini_cache_hits"])
}
