package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deusflow/veritas/internal/logger"
	"github.com/deusflow/veritas/internal/retry"
)

const defaultBaseURL = "https://api.telegram.org"

// MaxMessageLength is Telegram's limit minus headroom for HTML entities.
const MaxMessageLength = 4000

// APIError is a non-200 reply from the Bot API.
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error: status %d: %s", e.StatusCode, e.Description)
}

type Client struct {
	token      string
	chatID     string
	baseURL    string
	httpClient *http.Client
	retry      retry.RetryConfig
}

type Option func(*Client)

// WithBaseURL points the client at another Bot API host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRetry overrides the send retry policy.
func WithRetry(cfg retry.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

func NewClient(token, chatID string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		chatID:     chatID,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      retry.RetryConfig{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SendMessage sends an HTML message with retry. Client errors other than
// 429 are not retried.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	attempt := 0
	return retry.WithRetry(ctx, c.retry, func() error {
		attempt++
		err := c.sendMessageOnce(ctx, text)
		if err == nil {
			logger.Info("Message sent to Telegram", "attempt", attempt)
			return nil
		}
		logger.Warn("Error sending to Telegram", "attempt", attempt, "error", err)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	})
}

// sendMessageOnce does one try to send message
func (c *Client) sendMessageOnce(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)

	payload := map[string]any{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error make JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error building request: %w", c.redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", c.redact(err))
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn("failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var reply struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&reply)
		return &APIError{StatusCode: resp.StatusCode, Description: reply.Description}
	}

	return nil
}

// redact removes the bot token from the URL carried by transport errors.
func (c *Client) redact(err error) error {
	var ue *url.Error
	if c.token != "" && errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, c.token, "<redacted>")
	}
	return err
}
