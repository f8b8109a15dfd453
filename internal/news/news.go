// Package news builds scored category pages from a headline source.
package news

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/deusflow/veritas/internal/cache"
	"github.com/deusflow/veritas/internal/factcheck"
	"github.com/deusflow/veritas/internal/logger"
	"github.com/deusflow/veritas/internal/metrics"
	"github.com/deusflow/veritas/internal/newsapi"
	"github.com/deusflow/veritas/internal/ratelimit"
	"github.com/deusflow/veritas/internal/retry"
)

const dateLayout = "January 2, 2006"

// Article is a normalized headline with its risk assessment.
type Article struct {
	Title       string           `json:"title"`
	URL         string           `json:"url"`
	Source      string           `json:"source"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url,omitempty"`
	PublishedAt string           `json:"published_at,omitempty"`
	Category    string           `json:"category"`
	Risk        factcheck.Result `json:"risk"`
}

// Page is one category's headline list.
type Page struct {
	Category    string     `json:"category"`
	Slug        string     `json:"slug"`
	Placeholder bool       `json:"placeholder"`
	Categories  []Category `json:"categories"`
	Date        string     `json:"date"`
	Articles    []Article  `json:"articles"`
}

type Options struct {
	PageSize int
	CacheTTL time.Duration
	Retry    retry.RetryConfig
	Budget   *ratelimit.Budget // optional; credited with "newsapi" cache hits
}

type Service struct {
	src     Source
	checker *factcheck.Checker
	cache   *cache.Cache
	opts    Options
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService wires a headline source to the scorer. c may be nil to disable caching.
func NewService(src Source, checker *factcheck.Checker, c *cache.Cache, opts Options) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = 15
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = retry.RetryConfig{MaxAttempts: 1}
	}
	return &Service{
		src:     src,
		checker: checker,
		cache:   c,
		opts:    opts,
		metrics: metrics.Global,
		now:     time.Now,
	}
}

// Page returns the scored headline page for slug. Slugs outside the
// catalogue get a single placeholder article and never hit the source.
func (s *Service) Page(ctx context.Context, slug string) (*Page, error) {
	slug = NormalizeSlug(slug)
	page := &Page{
		Slug:       slug,
		Categories: Catalogue,
		Date:       s.now().Format(dateLayout),
	}

	cat, ok := Lookup(slug)
	if !ok {
		page.Category = DisplayName(slug)
		page.Placeholder = true
		page.Articles = placeholderArticles(page.Category)
		return page, nil
	}
	page.Category = cat.Name

	articles, err := s.Headlines(ctx, slug, s.opts.PageSize)
	if err != nil {
		return nil, err
	}
	page.Articles = articles
	return page, nil
}

// Headlines returns up to limit scored, deduplicated articles for a catalogue slug.
func (s *Service) Headlines(ctx context.Context, slug string, limit int) ([]Article, error) {
	slug = NormalizeSlug(slug)
	if limit <= 0 {
		limit = s.opts.PageSize
	}
	key := fmt.Sprintf("headlines:%s:%d", slug, limit)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.metrics.IncrementCacheHits()
			if s.opts.Budget != nil {
				s.opts.Budget.RecordCacheHit("newsapi")
			}
			return v.([]Article), nil
		}
	}

	apiCategory := APICategory(slug)
	var raw []RawArticle
	err := retry.WithRetry(ctx, s.opts.Retry, func() error {
		var err error
		raw, err = s.src.Headlines(ctx, apiCategory, limit)
		if err != nil && !retry.IsPermanent(err) && !newsapi.IsRetryable(err) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		s.metrics.IncrementFetchFailures()
		s.metrics.SetError(err.Error())
		logger.Error("headline fetch failed", "category", slug, "api_category", apiCategory, "error", err)
		return nil, fmt.Errorf("fetch %s headlines: %w", slug, err)
	}

	articles := s.build(slug, raw)
	if len(articles) > limit {
		articles = articles[:limit]
	}
	s.metrics.AddHeadlines(len(articles))
	s.metrics.SetLastRun()
	if s.cache != nil {
		s.cache.Set(key, articles, s.opts.CacheTTL)
	}
	return articles, nil
}

func (s *Service) build(slug string, raw []RawArticle) []Article {
	seenLinks := map[string]struct{}{}
	seenContent := map[string]struct{}{}
	out := make([]Article, 0, len(raw))
	dups := 0

	for _, r := range raw {
		a := normalize(slug, r)

		if a.URL != "#" {
			if _, dup := seenLinks[a.URL]; dup {
				dups++
				continue
			}
			seenLinks[a.URL] = struct{}{}
		}
		key := makeNewsKey(a.Title, a.Description)
		if _, dup := seenContent[key]; dup {
			dups++
			continue
		}
		seenContent[key] = struct{}{}

		a.Risk = s.checker.Check(a.URL, nil, a.Title+" "+a.Description)
		s.metrics.RecordCheck(string(a.Risk.Verdict), false)
		out = append(out, a)
	}
	if dups > 0 {
		s.metrics.AddDuplicatesFiltered(dups)
		logger.Debug("duplicates filtered", "category", slug, "count", dups)
	}
	return out
}

func normalize(slug string, r RawArticle) Article {
	a := Article{
		Title:       strings.TrimSpace(r.Title),
		URL:         strings.TrimSpace(r.URL),
		Source:      strings.TrimSpace(r.Source),
		Description: strings.TrimSpace(r.Description),
		ImageURL:    r.ImageURL,
		PublishedAt: r.PublishedAt,
		Category:    slug,
	}
	if a.Title == "" {
		a.Title = "No Title"
	}
	if a.URL == "" {
		a.URL = "#"
	}
	if a.Source == "" {
		a.Source = "Unknown Source"
	}
	if a.Description == "" {
		a.Description = strings.TrimSpace(r.Content)
	}
	return a
}

// makeNewsKey generates a hash key from title and description for deduplication
func makeNewsKey(title, description string) string {
	h := sha1.New()
	h.Write([]byte(strings.ToLower(title + description)))
	return hex.EncodeToString(h.Sum(nil))
}
