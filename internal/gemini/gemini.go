// Package gemini produces abstractive article summaries with Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/veritas/internal/logger"
	"github.com/deusflow/veritas/internal/ratelimit"
)

const (
	budgetKey       = "gemini"
	maxPromptChars  = 6000
	DefaultModel    = "gemini-1.5-flash"
	maxSummaryChars = 1500
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("no response from Gemini")

// generator is the slice of the model API the client needs.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type genaiModel struct {
	model *genai.GenerativeModel
}

func (g *genaiModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

type Client struct {
	gen    generator
	budget *ratelimit.Budget
	client *genai.Client
}

func NewClient(ctx context.Context, apiKey, model string, budget *ratelimit.Budget) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0.2)

	return &Client{
		gen:    &genaiModel{model: m},
		budget: budget,
		client: client,
	}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Summarize asks the model for a neutral summary of the article. The
// gemini budget is spent before the call.
func (c *Client) Summarize(ctx context.Context, title, content string) (string, error) {
	if c.budget != nil {
		if err := c.budget.Use(budgetKey); err != nil {
			return "", err
		}
	}

	prompt := fmt.Sprintf(`Summarize this news article in at most five sentences (under %d characters).

TITLE: %s
TEXT: %s

REQUIREMENTS:
Stay neutral and factual; do not add opinions or facts that are not in the text.
Do not start with phrases like "This article is about".
Reply with the summary only.
`, maxSummaryChars, title, prepareContent(content))

	out, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	summary := SanitizeAIText(out)
	if summary == "" {
		return "", ErrEmptyResponse
	}
	if utf8.RuneCountInString(summary) > maxSummaryChars {
		summary = string([]rune(summary)[:maxSummaryChars])
	}
	logger.Debug("gemini summary generated", "title", title, "chars", len(summary))
	return summary, nil
}

// prepareContent collapses whitespace and limits the prompt size.
func prepareContent(content string) string {
	content = strings.ReplaceAll(content, "\r", "")
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) > maxPromptChars {
		// cut on rune boundary then try to end at sentence
		runes := []rune(content)
		trimmed := string(runes[:maxPromptChars])
		if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
			trimmed = trimmed[:idx+1]
		}
		content = trimmed + "\n[TRUNCATED]"
	}
	return content
}
