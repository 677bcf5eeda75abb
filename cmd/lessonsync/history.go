package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
)

func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list previous sync runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "number of runs to show",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "show the lessons of a single run",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.History.DSN == "" {
				return errors.New("history is not configured, set history.dsn")
			}

			storage, db, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			w := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
			defer w.Flush()

			if runID := cmd.String("run"); runID != "" {
				results, err := storage.RunResults(ctx, runID)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "LESSON\tACTION\tEVENT\tERROR")
				for _, res := range results {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", res.Lesson, res.Action, res.EventID, errString(res.Err))
				}
				return nil
			}

			runs, err := storage.Runs(ctx, cmd.Int("limit"))
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "RUN\tSTARTED\tCALENDAR\tPERIOD\tCREATED\tUPDATED\tUNCHANGED\tFAILED\tERROR")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					r.RunID,
					r.StartedAt.Local().Format(time.DateTime),
					r.Calendar,
					r.Period,
					r.Created, r.Updated, r.Unchanged, r.Failed,
					errString(r.Err),
				)
			}
			return nil
		},
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
