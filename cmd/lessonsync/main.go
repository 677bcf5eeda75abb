package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/guilherme-santos/lessonsync/internal"
)

var opts struct {
	ConfigFile string
	Verbose    bool
	LogFormat  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "lessonsync:", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:   "lessonsync",
		Usage:  "keep a calendar in step with the lesson schedule",
		Writer: os.Stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "YAML configuration file",
				Value:       "lessonsync.yaml",
				Sources:     cli.EnvVars("LESSONSYNC_CONFIG"),
				Destination: &opts.ConfigFile,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "log debug messages",
				Destination: &opts.Verbose,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "log format, text or json",
				Value:       "text",
				Destination: &opts.LogFormat,
			},
		},
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			logger := internal.NewLogger(os.Stderr, opts.LogFormat, opts.Verbose)
			slog.SetDefault(logger)
			return internal.ContextWithLogger(ctx, logger), nil
		},
		Commands: []*cli.Command{
			SyncCommand(),
			ServeCommand(),
			PreviewCommand(),
			HistoryCommand(),
		},
	}
}
