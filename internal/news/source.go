package news

import (
	"context"
	"errors"
	"time"

	"github.com/deusflow/veritas/internal/newsapi"
	"github.com/deusflow/veritas/internal/retry"
	"github.com/deusflow/veritas/internal/rss"
)

// RawArticle is a headline before normalization and scoring.
type RawArticle struct {
	Title       string
	URL         string
	Source      string
	Description string
	Content     string
	ImageURL    string
	PublishedAt string
}

// Source fetches headlines for an upstream category.
type Source interface {
	Headlines(ctx context.Context, apiCategory string, limit int) ([]RawArticle, error)
}

// NewsAPISource reads headlines from NewsAPI.
type NewsAPISource struct {
	Client  *newsapi.Client
	Country string
}

func (s *NewsAPISource) Headlines(ctx context.Context, apiCategory string, limit int) ([]RawArticle, error) {
	items, err := s.Client.TopHeadlines(ctx, newsapi.Query{
		Category: apiCategory,
		Country:  s.Country,
		PageSize: limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]RawArticle, 0, len(items))
	for _, a := range items {
		out = append(out, RawArticle{
			Title:       a.Title,
			URL:         a.URL,
			Source:      a.Source.Name,
			Description: a.Description,
			Content:     a.Content,
			ImageURL:    a.URLToImage,
			PublishedAt: a.PublishedAt,
		})
	}
	return out, nil
}

// RSSSource reads headlines from configured feeds. A category without
// feeds is a configuration error and is never retried.
type RSSSource struct {
	Feeds map[string][]string
}

func (s *RSSSource) Headlines(ctx context.Context, apiCategory string, limit int) ([]RawArticle, error) {
	items, err := rss.FetchCategory(ctx, s.Feeds, apiCategory)
	if errors.Is(err, rss.ErrNoFeeds) {
		return nil, retry.Permanent(err)
	}
	if err != nil {
		return nil, err
	}
	out := make([]RawArticle, 0, len(items))
	for _, it := range items {
		if limit > 0 && len(out) >= limit {
			break
		}
		ra := RawArticle{
			Title:       it.Title,
			URL:         it.Link,
			Source:      it.Source,
			Description: it.Description,
			ImageURL:    it.ImageURL,
		}
		if it.Published != nil {
			ra.PublishedAt = it.Published.UTC().Format(time.RFC3339)
		}
		out = append(out, ra)
	}
	return out, nil
}
