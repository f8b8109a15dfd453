// Package summary turns an article URL into title, authors, date and summary.
package summary

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/deusflow/veritas/internal/cache"
	"github.com/deusflow/veritas/internal/logger"
	"github.com/deusflow/veritas/internal/metrics"
	"github.com/deusflow/veritas/internal/ratelimit"
	"github.com/deusflow/veritas/internal/retry"
	"github.com/deusflow/veritas/internal/scraper"
)

const (
	noTitle   = "No Title Extracted"
	notFound  = "N/A"
	noSummary = "Could not generate summary."
)

// ErrEmptyURL is returned when no URL was supplied.
var ErrEmptyURL = errors.New("URL cannot be empty")

// Result is the summary response.
type Result struct {
	Title       string `json:"title"`
	Authors     string `json:"authors"`
	Summary     string `json:"summary"`
	PublishDate string `json:"publish_date"`
}

// Extractor downloads and parses an article.
type Extractor interface {
	Extract(ctx context.Context, url string) (*scraper.Article, error)
}

// Abstractor writes an abstractive summary; optional.
type Abstractor interface {
	Summarize(ctx context.Context, title, text string) (string, error)
}

type Service struct {
	extractor  Extractor
	abstractor Abstractor
	sentences  int
	cache      *cache.Cache
	ttl        time.Duration
	budget     *ratelimit.Budget
	retry      retry.RetryConfig
	metrics    *metrics.Metrics
}

type Option func(*Service)

// WithAbstractor prefers ab over the extractive summary when it succeeds.
func WithAbstractor(ab Abstractor) Option {
	return func(s *Service) { s.abstractor = ab }
}

// WithCache caches results by URL for ttl.
func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithBudget skips the abstractor once the "gemini" budget is spent and
// credits cached summaries to it.
func WithBudget(b *ratelimit.Budget) Option {
	return func(s *Service) { s.budget = b }
}

// WithRetry retries transient download failures.
func WithRetry(cfg retry.RetryConfig) Option {
	return func(s *Service) { s.retry = cfg }
}

// Extract runs ex.Extract under cfg, retrying only failures
// scraper.IsRetryable accepts.
func Extract(ctx context.Context, ex Extractor, url string, cfg retry.RetryConfig) (*scraper.Article, error) {
	var article *scraper.Article
	err := retry.WithRetry(ctx, cfg, func() error {
		a, err := ex.Extract(ctx, url)
		if err != nil {
			if !scraper.IsRetryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		article = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

func NewService(ex Extractor, sentences int, opts ...Option) *Service {
	s := &Service{
		extractor: ex,
		sentences: sentences,
		metrics:   metrics.Global,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Summarize fetches url and builds a Result. Download and parse failures
// are returned unchanged so callers can classify them.
func (s *Service) Summarize(ctx context.Context, url string) (*Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrEmptyURL
	}
	key := cache.GenerateKey("summary", url)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.metrics.IncrementCacheHits()
			if s.abstractor != nil && s.budget != nil {
				s.budget.RecordCacheHit("gemini")
			}
			r := *v.(*Result)
			return &r, nil
		}
	}

	article, err := Extract(ctx, s.extractor, url, s.retry)
	if err != nil {
		s.metrics.IncrementSummaryFailures()
		logger.Warn("article extraction failed", "url", url, "error", err)
		return nil, err
	}

	res := &Result{
		Title:       article.Title,
		Authors:     strings.Join(article.Authors, ", "),
		Summary:     s.summarize(ctx, article),
		PublishDate: notFound,
	}
	if res.Title == "" {
		res.Title = noTitle
	}
	if res.Authors == "" {
		res.Authors = notFound
	}
	if article.PublishDate != nil {
		res.PublishDate = article.PublishDate.Format("2006-01-02")
	}
	if res.Summary == "" {
		res.Summary = noSummary
	}

	s.metrics.IncrementSummaries()
	if s.cache != nil {
		cp := *res
		s.cache.Set(key, &cp, s.ttl)
	}
	return res, nil
}

func (s *Service) summarize(ctx context.Context, a *scraper.Article) string {
	if a.Text == "" {
		return ""
	}
	if s.abstractor != nil && (s.budget == nil || s.budget.Allow("gemini")) {
		out, err := s.abstractor.Summarize(ctx, a.Title, a.Text)
		if err == nil && out != "" {
			return out
		}
		logger.Warn("abstractive summary unavailable, using extractive", "url", a.URL, "error", err)
	}
	return scraper.Summarize(a.Text, s.sentences)
}
