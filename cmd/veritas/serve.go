package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/deusflow/veritas/internal/api"
)

var (
	addrFlag = &cli.StringFlag{
		Name:  "addr",
		Usage: "Listen address (optional, overrides HTTP_ADDR)",
	}

	serveCmd = &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP API",
		Action: cmdServe,
		Flags: []cli.Flag{
			addrFlag,
		},
	}
)

func cmdServe(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cfg, err := loadApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := cfg.HTTPAddr
	if cmd.IsSet(addrFlag.Name) {
		addr = cmd.String(addrFlag.Name)
	}
	return api.NewServer(a).ListenAndServe(ctx, addr)
}
