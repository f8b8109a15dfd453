package app

import (
	"context"
	"fmt"
	"html"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/deusflow/veritas/internal/factcheck"
	"github.com/deusflow/veritas/internal/logger"
	"github.com/deusflow/veritas/internal/news"
	"github.com/deusflow/veritas/internal/telegram"
)

// DigestSection is one category block of a digest.
type DigestSection struct {
	Category string
	Articles []news.Article
}

// DigestOptions controls Digest.
type DigestOptions struct {
	Slugs       []string
	PerCategory int
	DryRun      bool
}

// Digest collects headlines for each slug concurrently, formats them and
// sends the message unless DryRun is set. The formatted message is returned.
func (a *App) Digest(ctx context.Context, opts DigestOptions) (string, error) {
	if len(opts.Slugs) == 0 {
		for _, c := range news.Catalogue {
			opts.Slugs = append(opts.Slugs, c.Slug)
		}
	}
	if opts.PerCategory <= 0 {
		opts.PerCategory = 3
	}
	if !opts.DryRun && a.sender == nil {
		return "", fmt.Errorf("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are required unless --dry-run is set")
	}

	cats := make([]news.Category, len(opts.Slugs))
	for i, slug := range opts.Slugs {
		cat, ok := news.Lookup(slug)
		if !ok {
			return "", fmt.Errorf("unknown category %q", slug)
		}
		cats[i] = cat
	}

	sections := make([]DigestSection, len(cats))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, cat := range cats {
		g.Go(func() error {
			articles, err := a.News.Headlines(gctx, cat.Slug, opts.PerCategory)
			if err != nil {
				return err
			}
			sections[i] = DigestSection{Category: cat.Name, Articles: articles}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	msg := FormatDigest(sections, a.now().Format("January 2, 2006"), telegram.MaxMessageLength)
	if opts.DryRun {
		return msg, nil
	}

	logger.Info("sending digest", "chars", len(msg), "categories", len(sections))
	if err := a.sender.SendMessage(ctx, msg); err != nil {
		a.metrics.SetError(err.Error())
		return msg, fmt.Errorf("send digest: %w", err)
	}
	a.metrics.IncrementTelegramMessagesSent()
	a.metrics.SetLastRun()
	return msg, nil
}

// FormatDigest renders sections as Telegram HTML. When the result exceeds
// maxLen, headlines are dropped from the end of the longest section until
// it fits.
func FormatDigest(sections []DigestSection, date string, maxLen int) string {
	trimmed := make([]DigestSection, len(sections))
	for i, s := range sections {
		trimmed[i] = DigestSection{Category: s.Category, Articles: append([]news.Article(nil), s.Articles...)}
	}

	for {
		msg := renderDigest(trimmed, date)
		if maxLen <= 0 || len(msg) <= maxLen {
			return msg
		}
		longest := -1
		for i, s := range trimmed {
			if len(s.Articles) > 0 && (longest < 0 || len(s.Articles) > len(trimmed[longest].Articles)) {
				longest = i
			}
		}
		if longest < 0 {
			return msg
		}
		trimmed[longest].Articles = trimmed[longest].Articles[:len(trimmed[longest].Articles)-1]
	}
}

func renderDigest(sections []DigestSection, date string) string {
	var b strings.Builder

	b.WriteString("📰 <b>Veritas Chronicle</b> | " + html.EscapeString(date) + "\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━\n")

	for _, s := range sections {
		b.WriteString("\n<b>" + html.EscapeString(strings.ToUpper(s.Category)) + "</b>\n")
		if len(s.Articles) == 0 {
			b.WriteString("<i>No headlines.</i>\n")
			continue
		}
		for i, a := range s.Articles {
			b.WriteString(formatHeadline(i+1, a))
		}
	}

	b.WriteString("\n━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString(factcheck.VerdictVerified.Emoji() + " low risk  " +
		factcheck.VerdictCaution.Emoji() + " caution  " +
		factcheck.VerdictHighRisk.Emoji() + " high risk")
	return b.String()
}

func formatHeadline(n int, a news.Article) string {
	title := html.EscapeString(a.Title)
	if a.URL != "" && a.URL != "#" {
		title = fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(a.URL), title)
	}
	return fmt.Sprintf("%s %d. %s <i>(%s, %s)</i>\n",
		a.Risk.Verdict.Emoji(), n, title, html.EscapeString(a.Source), factcheck.FormatScore(a.Risk.Score))
}
