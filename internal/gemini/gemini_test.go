package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/deusflow/veritas/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestSummarize(t *testing.T) {
	gen := &fakeGenerator{reply: "Here is a summary:\n**A comet** passed Earth.\n(Note: generated by AI.)"}
	c := &Client{gen: gen}

	got, err := c.Summarize(context.Background(), "Comet", "A   comet\r\npassed.")
	require.NoError(t, err)
	assert.Equal(t, "A comet passed Earth.", got)
	assert.Contains(t, gen.prompt, "TITLE: Comet")
	assert.Contains(t, gen.prompt, "TEXT: A comet passed.")
}

func TestSummarize_EmptyAfterSanitize(t *testing.T) {
	c := &Client{gen: &fakeGenerator{reply: "Note: I cannot summarize this."}}
	_, err := c.Summarize(context.Background(), "t", "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestSummarize_GeneratorError(t *testing.T) {
	boom := errors.New("quota")
	c := &Client{gen: &fakeGenerator{err: boom}}
	_, err := c.Summarize(context.Background(), "t", "x")
	assert.ErrorIs(t, err, boom)
}

func TestSummarize_Budget(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	c := &Client{gen: gen, budget: ratelimit.NewBudget(map[string]int{"gemini": 1})}

	_, err := c.Summarize(context.Background(), "t", "x")
	require.NoError(t, err)
	_, err = c.Summarize(context.Background(), "t", "x")
	assert.ErrorIs(t, err, ratelimit.ErrBudgetExceeded)
}

func TestPrepareContent_Truncates(t *testing.T) {
	long := strings.Repeat("Sentence number one is here. ", 400)
	out := prepareContent(long)
	assert.True(t, strings.HasSuffix(out, "[TRUNCATED]"))
	assert.Less(t, len(out), len(long))
}
