package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func SyncCommand() *cli.Command {
	var dryRun bool

	return &cli.Command{
		Name:  "sync",
		Usage: "sync next week's lessons into the calendar",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "report what would change without writing to the calendar",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, loc, err := loadConfig()
			if err != nil {
				return err
			}

			r, closeHistory, err := newRunner(ctx, cfg, loc)
			if err != nil {
				return err
			}
			defer closeHistory()

			if dryRun {
				r.Syncer.DryRun = true
				// Nothing was written, so there is nothing to audit.
				r.History = nil
			}

			resp, err := r.Run(ctx)
			fmt.Fprintln(cmd.Root().Writer, resp.Body)
			return err
		},
	}
}
