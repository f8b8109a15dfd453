package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/veritas/internal/app"
	"github.com/deusflow/veritas/internal/config"
	"github.com/deusflow/veritas/internal/logger"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""

	outputFormat = formatJSON

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
)

func main() {
	logger.Init()

	root := &cli.Command{
		Name:    "veritas",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Usage:   "Headline aggregation with misinformation risk scoring",
		Flags: []cli.Flag{
			debugFlag,
			formatFlag,
		},
		Commands: []*cli.Command{
			checkCmd,
			headlinesCmd,
			summarizeCmd,
			digestCmd,
			historyCmd,
			serveCmd,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool(debugFlag.Name) {
				logger.SetDebug(true)
			}
			switch f := cmd.String(formatFlag.Name); f {
			case formatYAML, "yml":
				outputFormat = formatYAML
			case formatJSON, "":
			default:
				return ctx, fmt.Errorf("unsupported format %q", f)
			}
			return ctx, nil
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		logger.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// loadApp reads the environment and builds the application. Callers must
// Close the result.
func loadApp(ctx context.Context, mutate func(*config.Config)) (*app.App, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if mutate != nil {
		mutate(cfg)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

func encode(w io.Writer, v any) error {
	if outputFormat == formatYAML {
		return yaml.NewEncoder(w).Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
