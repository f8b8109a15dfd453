// Package app wires configuration into the services the CLI and HTTP API use.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deusflow/veritas/internal/cache"
	"github.com/deusflow/veritas/internal/config"
	"github.com/deusflow/veritas/internal/factcheck"
	"github.com/deusflow/veritas/internal/gemini"
	"github.com/deusflow/veritas/internal/logger"
	"github.com/deusflow/veritas/internal/metrics"
	"github.com/deusflow/veritas/internal/news"
	"github.com/deusflow/veritas/internal/newsapi"
	"github.com/deusflow/veritas/internal/ratelimit"
	"github.com/deusflow/veritas/internal/retry"
	"github.com/deusflow/veritas/internal/rss"
	"github.com/deusflow/veritas/internal/scraper"
	"github.com/deusflow/veritas/internal/storage"
	"github.com/deusflow/veritas/internal/summary"
	"github.com/deusflow/veritas/internal/telegram"
)

// Sender delivers a formatted digest.
type Sender interface {
	SendMessage(ctx context.Context, text string) error
}

// Deps are the collaborators an App is built from. Nil History disables
// check history; nil Sender allows only dry-run digests.
type Deps struct {
	Checker     *factcheck.Checker
	News        *news.Service
	Summaries   *summary.Service
	Extractor   summary.Extractor
	History     storage.History
	Sender      Sender
	Budget      *ratelimit.Budget
	Retry       retry.RetryConfig
	Concurrency int
}

type App struct {
	Checker   *factcheck.Checker
	News      *news.Service
	Summaries *summary.Service
	History   storage.History
	Budget    *ratelimit.Budget

	extractor   summary.Extractor
	sender      Sender
	retry       retry.RetryConfig
	concurrency int
	metrics     *metrics.Metrics
	now         func() time.Time
	closers     []func()
}

// NewWithDeps assembles an App from ready collaborators.
func NewWithDeps(d Deps) *App {
	if d.Concurrency <= 0 {
		d.Concurrency = 4
	}
	return &App{
		Checker:     d.Checker,
		News:        d.News,
		Summaries:   d.Summaries,
		History:     d.History,
		Budget:      d.Budget,
		extractor:   d.Extractor,
		sender:      d.Sender,
		retry:       d.Retry,
		concurrency: d.Concurrency,
		metrics:     metrics.Global,
		now:         time.Now,
	}
}

// New builds every service from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	scorerCfg := factcheck.DefaultConfig()
	if cfg.ScorerConfigPath != "" {
		loaded, err := factcheck.LoadConfig(cfg.ScorerConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load scorer config: %w", err)
		}
		scorerCfg = loaded
	}
	var opts []factcheck.Option
	if cfg.HasRandomSeed {
		opts = append(opts, factcheck.WithRandomSource(factcheck.NewSeededSource(cfg.RandomSeed)))
	}
	checker, err := factcheck.New(scorerCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("build checker: %w", err)
	}

	budget := ratelimit.NewBudget(map[string]int{
		"newsapi": cfg.MaxNewsAPIRequests,
		"gemini":  cfg.MaxGeminiRequests,
	})
	c := cache.New()
	a := &App{closers: []func(){c.Close}}

	var src news.Source
	var newsBudget *ratelimit.Budget
	if cfg.NewsAPIKey != "" {
		newsBudget = budget
		src = &news.NewsAPISource{
			Client:  newsapi.NewClient(cfg.NewsAPIKey, cfg.NewsAPIBaseURL, cfg.RequestTimeout, budget),
			Country: cfg.NewsCountry,
		}
		logger.Info("headline source: NewsAPI", "country", cfg.NewsCountry)
	} else {
		feeds, err := rss.LoadFeeds(cfg.FeedsConfigPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("load feeds: %w", err)
		}
		src = &news.RSSSource{Feeds: feeds}
		logger.Info("headline source: RSS", "path", cfg.FeedsConfigPath, "categories", len(feeds))
	}

	retryCfg := retry.RetryConfig{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}
	newsSvc := news.NewService(src, checker, c, news.Options{
		PageSize: cfg.NewsPageSize,
		CacheTTL: cfg.CacheTTL,
		Retry:    retryCfg,
		Budget:   newsBudget,
	})

	fetcher := scraper.NewFetcher(cfg.RequestTimeout)
	summaryOpts := []summary.Option{summary.WithCache(c, cfg.CacheTTL), summary.WithRetry(retryCfg)}
	if cfg.GeminiAPIKey != "" {
		gc, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, budget)
		if err != nil {
			logger.Warn("Gemini unavailable, using extractive summaries", "error", err)
		} else {
			a.closers = append(a.closers, gc.Close)
			summaryOpts = append(summaryOpts, summary.WithAbstractor(gc), summary.WithBudget(budget))
		}
	}

	history, err := storage.Open(ctx, cfg.HistoryDSN)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}

	var sender Sender
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		sender = telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID, telegram.WithRetry(retryCfg))
	}

	built := NewWithDeps(Deps{
		Checker:     checker,
		News:        newsSvc,
		Summaries:   summary.NewService(fetcher, cfg.SummarySentences, summaryOpts...),
		Extractor:   fetcher,
		History:     history,
		Sender:      sender,
		Budget:      budget,
		Retry:       retryCfg,
		Concurrency: cfg.ScrapeConcurrency,
	})
	built.closers = a.closers
	return built, nil
}

// Close releases caches, clients and the history store.
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			logger.Warn("closing history", "error", err)
		}
	}
}

// CheckRequest is one scoring request.
type CheckRequest struct {
	URL          string
	Content      string
	Image        *factcheck.ImageFeatures
	FetchContent bool
}

// ErrHistoryDisabled is returned by history queries when no store is configured.
var ErrHistoryDisabled = errors.New("check history is not enabled")

// Check scores req and records the result. With FetchContent and no
// content, the article text is downloaded first.
func (a *App) Check(ctx context.Context, req CheckRequest) (factcheck.Result, error) {
	content := req.Content
	if req.FetchContent && strings.TrimSpace(content) == "" {
		if a.extractor == nil {
			return factcheck.Result{}, fmt.Errorf("content fetching is not configured")
		}
		article, err := summary.Extract(ctx, a.extractor, req.URL, a.retry)
		if err != nil {
			a.metrics.IncrementFetchFailures()
			return factcheck.Result{}, fmt.Errorf("analysis failed: %w", err)
		}
		content = strings.TrimSpace(article.Title + " " + article.Text)
	}

	res := a.Checker.Check(req.URL, req.Image, content)
	a.metrics.RecordCheck(string(res.Verdict), res.ImageAnalyzed)
	logger.Info("check completed", "url", req.URL, "verdict", res.Verdict, "score", factcheck.FormatScore(res.Score))

	if a.History != nil {
		if err := a.History.Save(ctx, storage.NewRecord(req.URL, res, a.now())); err != nil {
			logger.Warn("failed to record check", "url", req.URL, "error", err)
		}
	}
	return res, nil
}

// RecentChecks lists stored checks, newest first.
func (a *App) RecentChecks(ctx context.Context, limit int) ([]storage.Record, storage.Stats, error) {
	if a.History == nil {
		return nil, storage.Stats{}, ErrHistoryDisabled
	}
	recs, err := a.History.Recent(ctx, limit)
	if err != nil {
		return nil, storage.Stats{}, err
	}
	st, err := a.History.Stats(ctx)
	if err != nil {
		return nil, storage.Stats{}, err
	}
	return recs, st, nil
}
