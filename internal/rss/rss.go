package rss

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/veritas/internal/logger"
)

// ErrNoFeeds means no feed URL is configured for the requested category.
var ErrNoFeeds = errors.New("no feeds configured")

// FeedsConfig is YAML config structure
// feeds:
//
//	general:
//	  - https://...
type FeedsConfig struct {
	Feeds map[string][]string `yaml:"feeds"`
}

// Item is a feed entry reduced to the fields headlines need.
type Item struct {
	Title       string
	Description string
	Link        string
	Source      string
	ImageURL    string
	Published   *time.Time
}

// LoadFeeds reads the category to feed URL map from a YAML file.
func LoadFeeds(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(cfg.Feeds) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoFeeds)
	}
	return cfg.Feeds, nil
}

// FetchCategory downloads and parses every feed for category. A feed that
// fails is logged and skipped; an error is returned only when all fail.
func FetchCategory(ctx context.Context, feeds map[string][]string, category string) ([]Item, error) {
	urls := feeds[category]
	if len(urls) == 0 {
		urls = feeds["general"]
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("category %q: %w", category, ErrNoFeeds)
	}

	parser := gofeed.NewParser()
	var allItems []Item
	successCount := 0
	var lastErr error

	for _, url := range urls {
		feed, err := parser.ParseURLWithContext(url, ctx)
		if err != nil {
			logger.Warn("Error parsing RSS", "url", url, "error", err)
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		for _, it := range feed.Items {
			allItems = append(allItems, convert(feed, it))
		}
		successCount++
		logger.Debug("Loaded RSS items", "count", len(feed.Items), "url", url)
	}

	logger.Info("Processed RSS feeds", "category", category, "ok", successCount, "total", len(urls))
	if successCount == 0 {
		return nil, fmt.Errorf("all feeds failed for %q: %w", category, lastErr)
	}
	return allItems, nil
}

func convert(feed *gofeed.Feed, it *gofeed.Item) Item {
	out := Item{
		Title:       it.Title,
		Description: it.Description,
		Link:        it.Link,
		Source:      feed.Title,
		Published:   it.PublishedParsed,
	}
	if out.Description == "" {
		out.Description = it.Content
	}
	if it.Image != nil {
		out.ImageURL = it.Image.URL
	}
	return out
}
