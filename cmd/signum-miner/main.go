// Command signum-miner is the CLI entry point: parse flags, load
// configuration, build the App, and run until interrupted. Flag/CLI
// ergonomics are explicitly out of scope for the core design; this shell
// exists only to make the rest of the module runnable.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/danhill2020/signum-miner/internal/app"
	"github.com/danhill2020/signum-miner/internal/config"
	"github.com/danhill2020/signum-miner/internal/logging"
	"github.com/danhill2020/signum-miner/internal/metricsink"
)

func main() {
	cliApp := &cli.App{
		Name:  "signum-miner",
		Usage: "a Proof-of-Capacity miner for Signum plot files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the YAML configuration file",
			},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	settings, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("signum-miner: %w", err)
	}

	level, err := logrus.ParseLevel(settings.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log := logging.NewLogrus(level)
	metrics := metricsink.NewNop()

	a, err := app.New(settings, log, metrics)
	if err != nil {
		log.Error("signum-miner: initialization failed", "err", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("signum-miner: starting")
	a.Run(ctx)
	log.Info("signum-miner: shutdown complete")
	return nil
}
