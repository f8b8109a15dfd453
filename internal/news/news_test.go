package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deusflow/veritas/internal/cache"
	"github.com/deusflow/veritas/internal/factcheck"
	"github.com/deusflow/veritas/internal/metrics"
	"github.com/deusflow/veritas/internal/newsapi"
	"github.com/deusflow/veritas/internal/ratelimit"
	"github.com/deusflow/veritas/internal/retry"
	"github.com/deusflow/veritas/internal/rss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls    int
	lastCat  string
	articles []RawArticle
	errs     []error
}

func (f *fakeSource) Headlines(ctx context.Context, apiCategory string, limit int) ([]RawArticle, error) {
	f.calls++
	f.lastCat = apiCategory
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.articles, nil
}

func newTestService(src Source, c *cache.Cache) *Service {
	s := NewService(src, factcheck.NewDefault(), c, Options{
		PageSize: 10,
		CacheTTL: time.Minute,
		Retry:    retry.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond},
	})
	s.metrics = metrics.New()
	s.now = func() time.Time { return time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestAPICategory(t *testing.T) {
	tests := map[string]string{
		"home":          "general",
		"world-news":    "general",
		"World News":    "general",
		"lifestyle":     "health",
		"business":      "business",
		"entertainment": "entertainment",
		"health":        "health",
		"science":       "science",
		"sports":        "sports",
		"technology":    "technology",
		"space":         "general",
		"":              "general",
	}
	for slug, want := range tests {
		assert.Equal(t, want, APICategory(slug), slug)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Space Travel", DisplayName("space-travel"))
	assert.Equal(t, "Opinion", DisplayName("OPINION"))
}

func TestPage_Placeholder(t *testing.T) {
	src := &fakeSource{}
	s := newTestService(src, nil)

	page, err := s.Page(context.Background(), "space-travel")
	require.NoError(t, err)
	assert.True(t, page.Placeholder)
	assert.Equal(t, "Space Travel", page.Category)
	assert.Equal(t, "March 5, 2025", page.Date)
	require.Len(t, page.Articles, 1)
	a := page.Articles[0]
	assert.Equal(t, "Feature Not Available: Space Travel News", a.Title)
	assert.Equal(t, "Veritas Chronicle System", a.Source)
	assert.Equal(t, "#", a.URL)
	assert.Equal(t, "placeholder", a.Category)
	assert.Equal(t, 0, src.calls)
}

func TestPage_NormalizesDedupesAndScores(t *testing.T) {
	src := &fakeSource{articles: []RawArticle{
		{Title: "Must see: shocking viral scam exposed in disaster", URL: "https://hoax-news.blogspot.com/a", Source: "Blog"},
		{Title: "Must see: shocking viral scam exposed in disaster", URL: "https://hoax-news.blogspot.com/a", Source: "Blog"},
		{Title: "", URL: "", Source: "", Content: "body text"},
		{Title: "", URL: "", Source: "", Content: "body text"},
		{Title: "Quiet day", URL: "https://example.com/q", Source: "Wire", Description: "Nothing happened"},
	}}
	s := newTestService(src, nil)

	page, err := s.Page(context.Background(), "lifestyle")
	require.NoError(t, err)
	assert.Equal(t, "health", src.lastCat)
	assert.Equal(t, "Lifestyle", page.Category)
	assert.Equal(t, Catalogue, page.Categories)
	require.Len(t, page.Articles, 3)

	risky := page.Articles[0]
	assert.Equal(t, factcheck.VerdictHighRisk, risky.Risk.Verdict)
	assert.Equal(t, "lifestyle", risky.Category)

	blank := page.Articles[1]
	assert.Equal(t, "No Title", blank.Title)
	assert.Equal(t, "#", blank.URL)
	assert.Equal(t, "Unknown Source", blank.Source)
	assert.Equal(t, "body text", blank.Description)

	assert.Equal(t, factcheck.VerdictVerified, page.Articles[2].Risk.Verdict)
	assert.Equal(t, int64(2), s.metrics.GetStats()["duplicates_filtered"])
}

func TestHeadlines_RetriesTransientErrors(t *testing.T) {
	src := &fakeSource{
		errs:     []error{errors.New("connection reset"), nil},
		articles: []RawArticle{{Title: "ok", URL: "https://example.com"}},
	}
	s := newTestService(src, nil)

	got, err := s.Headlines(context.Background(), "science", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, src.calls)
}

func TestHeadlines_FatalErrorNotRetried(t *testing.T) {
	src := &fakeSource{errs: []error{&newsapi.APIError{StatusCode: 401, Code: "apiKeyInvalid"}}}
	s := newTestService(src, nil)

	_, err := s.Headlines(context.Background(), "science", 5)
	var apiErr *newsapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, int64(1), s.metrics.GetStats()["fetch_failures"])
}

func TestHeadlines_Cached(t *testing.T) {
	c := cache.New()
	defer c.Close()
	src := &fakeSource{articles: []RawArticle{{Title: "ok", URL: "https://example.com"}}}
	s := newTestService(src, c)

	_, err := s.Headlines(context.Background(), "sports", 5)
	require.NoError(t, err)
	_, err = s.Headlines(context.Background(), "sports", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, int64(1), s.metrics.GetStats()["cache_hits"])
}

func TestHeadlines_CacheHitCreditsBudget(t *testing.T) {
	c := cache.New()
	defer c.Close()
	src := &fakeSource{articles: []RawArticle{{Title: "ok", URL: "https://example.com"}}}
	s := newTestService(src, c)
	s.opts.Budget = ratelimit.NewBudget(map[string]int{"newsapi": 10})

	for range 3 {
		_, err := s.Headlines(context.Background(), "sports", 5)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, s.opts.Budget.Stats()["newsapi_cache_hits"])
}

type countingSource struct {
	Source
	calls int
}

func (c *countingSource) Headlines(ctx context.Context, apiCategory string, limit int) ([]RawArticle, error) {
	c.calls++
	return c.Source.Headlines(ctx, apiCategory, limit)
}

func TestHeadlines_MissingFeedsNotRetried(t *testing.T) {
	src := &countingSource{Source: &RSSSource{Feeds: map[string][]string{"science": {"https://a"}}}}
	s := newTestService(src, nil)

	_, err := s.Headlines(context.Background(), "sports", 5)
	require.ErrorIs(t, err, rss.ErrNoFeeds)
	assert.Equal(t, 1, src.calls)
}

func TestHeadlines_Limit(t *testing.T) {
	src := &fakeSource{articles: []RawArticle{
		{Title: "a", URL: "https://e.com/a"},
		{Title: "b", URL: "https://e.com/b"},
		{Title: "c", URL: "https://e.com/c"},
	}}
	s := newTestService(src, nil)
	got, err := s.Headlines(context.Background(), "home", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "general", src.lastCat)
}
