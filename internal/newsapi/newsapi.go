// Package newsapi is a minimal client for the NewsAPI top-headlines endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deusflow/veritas/internal/ratelimit"
)

const budgetKey = "newsapi"

// Article is one headline as NewsAPI returns it.
type Article struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

type response struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// Query selects headlines. Empty fields are omitted from the request.
type Query struct {
	Category string
	Country  string
	PageSize int
}

// APIError is an error reported by NewsAPI or an unexpected HTTP status.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("newsapi: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("newsapi: HTTP %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether repeating the request may succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsRetryable classifies err: transport failures, 429 and 5xx are retryable;
// other API errors, budget exhaustion and cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ratelimit.ErrBudgetExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	budget     *ratelimit.Budget
}

func NewClient(apiKey, baseURL string, timeout time.Duration, budget *ratelimit.Budget) *Client {
	if baseURL == "" {
		baseURL = "https://newsapi.org"
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		budget:     budget,
	}
}

// TopHeadlines fetches English top headlines for q.
func (c *Client) TopHeadlines(ctx context.Context, q Query) ([]Article, error) {
	if c.budget != nil {
		if err := c.budget.Use(budgetKey); err != nil {
			return nil, err
		}
	}

	params := url.Values{}
	params.Set("language", "en")
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Country != "" {
		params.Set("country", q.Country)
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/top-headlines?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read newsapi response: %w", err)
	}

	var out response
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil && out.Message != "" {
			apiErr.Code = out.Code
			apiErr.Message = out.Message
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: "malformedResponse", Message: decodeErr.Error()}
	}
	if out.Status == "error" {
		return nil, &APIError{StatusCode: http.StatusBadRequest, Code: out.Code, Message: out.Message}
	}

	return out.Articles, nil
}
