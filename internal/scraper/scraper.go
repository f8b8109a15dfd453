// Package scraper downloads news pages and extracts article metadata and text.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	maxTextLength  = 5000
	maxBodyBytes   = 8 << 20
	DefaultTimeout = 15 * time.Second
)

// ErrNoContent means the page downloaded but held nothing usable.
var ErrNoContent = errors.New("failed to download article content: the URL might be inaccessible or blocking automated access")

// ErrInvalidURL means the URL could not be turned into a request.
var ErrInvalidURL = errors.New("invalid URL")

// FetchError reports a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
}

// Retryable reports whether a later attempt may succeed.
func (e *FetchError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsRetryable reports whether a failed Fetch or Extract may succeed later:
// transport failures and FetchErrors with status 429 or 5xx.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrNoContent) || errors.Is(err, ErrInvalidURL) {
		return false
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable()
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// Article is the extracted content of one page.
type Article struct {
	URL         string
	Title       string
	Authors     []string
	PublishDate *time.Time
	Text        string
}

type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// NormalizeURL trims rawURL and adds https:// when no scheme is given.
func NormalizeURL(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return ""
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return u
}

// Fetch downloads and parses the page at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	u := NormalizeURL(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidURL, rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: u, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error reading page: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, ErrNoContent
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	return doc, nil
}

// Extract fetches rawURL and parses it. ErrNoContent is returned when
// neither a title nor any text could be found.
func (f *Fetcher) Extract(ctx context.Context, rawURL string) (*Article, error) {
	doc, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	a := Parse(doc)
	a.URL = NormalizeURL(rawURL)
	if a.Title == "" && a.Text == "" {
		return nil, ErrNoContent
	}
	return a, nil
}

// Parse extracts metadata and body text from doc.
func Parse(doc *goquery.Document) *Article {
	return &Article{
		Title:       extractTitle(doc),
		Authors:     extractAuthors(doc),
		PublishDate: extractPublishDate(doc),
		Text:        truncate(extractText(doc), maxTextLength),
	}
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// extractTitle gets article title
func extractTitle(doc *goquery.Document) string {
	if t := metaContent(doc, `meta[property="og:title"]`, `meta[name="twitter:title"]`); t != "" {
		return t
	}

	selectors := []string{
		"h1",
		".article-title",
		".headline",
		".entry-title",
		"title",
	}

	for _, selector := range selectors {
		title := strings.TrimSpace(doc.Find(selector).First().Text())
		if title != "" {
			return collapseSpaces(title)
		}
	}

	return ""
}

func extractAuthors(doc *goquery.Document) []string {
	var authors []string
	seen := map[string]bool{}
	add := func(name string) {
		name = collapseSpaces(strings.TrimSpace(name))
		name = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(name, "By "), "by "))
		if name == "" || len(name) > 80 || seen[strings.ToLower(name)] {
			return
		}
		seen[strings.ToLower(name)] = true
		authors = append(authors, name)
	}

	doc.Find(`meta[name="author"], meta[property="article:author"]`).Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("content")
		if strings.HasPrefix(v, "http") {
			return
		}
		for _, part := range strings.Split(v, ",") {
			add(part)
		}
	})
	if len(authors) > 0 {
		return authors
	}
	doc.Find(`[rel="author"], [itemprop="author"], .byline, .author`).Each(func(_ int, s *goquery.Selection) {
		add(s.Text())
	})
	return authors
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
	"January 2, 2006",
}

func extractPublishDate(doc *goquery.Document) *time.Time {
	candidates := []string{
		metaContent(doc,
			`meta[property="article:published_time"]`,
			`meta[name="pubdate"]`,
			`meta[name="publishdate"]`,
			`meta[name="date"]`,
			`meta[itemprop="datePublished"]`),
	}
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, v)
	}
	for _, c := range candidates {
		if t, ok := parseDate(c); ok {
			return &t
		}
	}
	return nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// extractText is universal parser for any site
func extractText(doc *goquery.Document) string {
	var paragraphs []string

	selectors := []string{
		"article p",
		".article-body p",
		".article p",
		".content p",
		".post-content p",
		".entry-content p",
		"main p",
		"#content p",
		".text p",
	}

	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 3 { // If we find 3 paragraphs, it's enough
			break
		}
		paragraphs = paragraphs[:0]
	}

	if len(paragraphs) == 0 {
		doc.Find("p, h1, h2, h3").Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
	}

	return cleanContent(strings.Join(paragraphs, "\n\n"))
}

var junkIndicators = []string{
	"cookie", "gdpr", "subscribe", "sign up", "newsletter",
	"advertisement", "read more", "click here", "follow us", "share this",
}

// cleanContent drops boilerplate lines and normalizes whitespace
func cleanContent(content string) string {
	if content == "" {
		return ""
	}

	var cleanLines []string
	for _, line := range strings.Split(content, "\n\n") {
		line = collapseSpaces(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		isJunk := false
		for _, indicator := range junkIndicators {
			if strings.Contains(lower, indicator) && len(line) < 200 {
				isJunk = true
				break
			}
		}
		if !isJunk {
			cleanLines = append(cleanLines, line)
		}
	}

	return strings.TrimSpace(strings.Join(cleanLines, "\n\n"))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut]
}
