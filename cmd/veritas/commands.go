package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/deusflow/veritas/internal/app"
	"github.com/deusflow/veritas/internal/config"
	"github.com/deusflow/veritas/internal/factcheck"
	"github.com/deusflow/veritas/internal/news"
)

const (
	headlinesLimitDefault    = 10
	digestPerCategoryDefault = 3
	historyLimitDefault      = 20
)

var (
	urlFlag = &cli.StringFlag{
		Name:  "url",
		Usage: "Article URL",
	}

	contentFlag = &cli.StringFlag{
		Name:  "content",
		Usage: "Article text to score",
	}

	sizeFlag = &cli.IntFlag{
		Name:  "size",
		Usage: "Image file size in KB (enables image analysis together with --noise)",
	}

	noiseFlag = &cli.FloatFlag{
		Name:  "noise",
		Usage: "Image noise factor in [0, 1] (enables image analysis together with --size)",
	}

	fetchFlag = &cli.BoolFlag{
		Name:  "fetch",
		Usage: "Download the article and score its text when --content is empty",
	}

	seedFlag = &cli.Uint64Flag{
		Name:  "seed",
		Usage: "Seed for the image analysis random draw (optional, overrides RANDOM_SEED)",
	}

	categoryFlag = &cli.StringFlag{
		Name:  "category",
		Usage: "Category slug",
		Value: "home",
	}

	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Limits number of results returned",
	}

	categoriesFlag = &cli.StringSliceFlag{
		Name:  "categories",
		Usage: "Category slugs to include (optional, default: all)",
	}

	perCategoryFlag = &cli.IntFlag{
		Name:  "per-category",
		Usage: "Headlines per category",
		Value: digestPerCategoryDefault,
	}

	dryRunFlag = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Print the digest instead of sending it",
	}

	checkCmd = &cli.Command{
		Name:   "check",
		Usage:  "Score an article for misinformation risk",
		Action: cmdCheck,
		Flags: []cli.Flag{
			urlFlag,
			contentFlag,
			sizeFlag,
			noiseFlag,
			fetchFlag,
			seedFlag,
		},
	}

	headlinesCmd = &cli.Command{
		Name:   "headlines",
		Usage:  "List scored headlines for a category",
		Action: cmdHeadlines,
		Flags: []cli.Flag{
			categoryFlag,
			limitFlag,
		},
	}

	summarizeCmd = &cli.Command{
		Name:   "summarize",
		Usage:  "Extract and summarize an article",
		Action: cmdSummarize,
		Flags: []cli.Flag{
			urlFlag,
		},
	}

	digestCmd = &cli.Command{
		Name:   "digest",
		Usage:  "Send the headline digest to Telegram",
		Action: cmdDigest,
		Flags: []cli.Flag{
			categoriesFlag,
			perCategoryFlag,
			dryRunFlag,
		},
	}

	historyCmd = &cli.Command{
		Name:   "history",
		Usage:  "List recent checks",
		Action: cmdHistory,
		Flags: []cli.Flag{
			limitFlag,
		},
	}
)

func cmdCheck(ctx context.Context, cmd *cli.Command) error {
	target := strings.TrimSpace(cmd.String(urlFlag.Name))
	if target == "" {
		target = "URL Not Provided"
	}

	a, _, err := loadApp(ctx, func(cfg *config.Config) {
		if cmd.IsSet(seedFlag.Name) {
			cfg.RandomSeed = cmd.Uint64(seedFlag.Name)
			cfg.HasRandomSeed = true
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	req := app.CheckRequest{
		URL:          target,
		Content:      cmd.String(contentFlag.Name),
		FetchContent: cmd.Bool(fetchFlag.Name) && cmd.IsSet(urlFlag.Name),
	}
	if cmd.IsSet(sizeFlag.Name) && cmd.IsSet(noiseFlag.Name) {
		req.Image = factcheck.CoerceImageFeatures(cmd.Int(sizeFlag.Name), cmd.Float(noiseFlag.Name))
	}

	res, err := a.Check(ctx, req)
	if err != nil {
		return err
	}
	return encode(os.Stdout, res)
}

func cmdHeadlines(ctx context.Context, cmd *cli.Command) error {
	slug := news.NormalizeSlug(cmd.String(categoryFlag.Name))
	if _, ok := news.Lookup(slug); !ok {
		return fmt.Errorf("unknown category %q", slug)
	}

	limit := cmd.Int(limitFlag.Name)
	if limit <= 0 {
		limit = headlinesLimitDefault
	}

	a, _, err := loadApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	articles, err := a.News.Headlines(ctx, slug, limit)
	if err != nil {
		return err
	}
	return encode(os.Stdout, articles)
}

func cmdSummarize(ctx context.Context, cmd *cli.Command) error {
	a, _, err := loadApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Summaries.Summarize(ctx, cmd.String(urlFlag.Name))
	if err != nil {
		return fmt.Errorf("could not process article: %w", err)
	}
	return encode(os.Stdout, res)
}

func cmdDigest(ctx context.Context, cmd *cli.Command) error {
	dryRun := cmd.Bool(dryRunFlag.Name)

	a, cfg, err := loadApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if !dryRun {
		if err := cfg.RequireTelegram(); err != nil {
			return err
		}
	}

	msg, err := a.Digest(ctx, app.DigestOptions{
		Slugs:       cmd.StringSlice(categoriesFlag.Name),
		PerCategory: cmd.Int(perCategoryFlag.Name),
		DryRun:      dryRun,
	})
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Println(msg)
	}
	return nil
}

func cmdHistory(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int(limitFlag.Name)
	if limit <= 0 {
		limit = historyLimitDefault
	}

	a, _, err := loadApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	recs, st, err := a.RecentChecks(ctx, limit)
	if err != nil {
		return err
	}
	return encode(os.Stdout, map[string]any{"records": recs, "stats": st})
}
