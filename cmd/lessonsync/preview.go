package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/guilherme-santos/lessonsync/calendar/ics"
	"github.com/guilherme-santos/lessonsync/internal"
)

func PreviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "print next week's lessons as an iCalendar document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "week-of",
				Usage: "preview the week after the one containing this date (e.g. 2024-03-01)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, loc, err := loadConfig()
			if err != nil {
				return err
			}

			now := time.Now()
			if v := cmd.String("week-of"); v != "" {
				from, err := internal.ParseDate(v, loc)
				if err != nil {
					return err
				}
				now = from.Time
			}
			period := internal.NextWeek(now, loc)

			lessons, err := newScheduleClient(cfg).Lessons(ctx, period)
			if err != nil {
				return err
			}

			logger := internal.Logger(ctx)
			mapper := newMapper(cfg, loc)
			events := make([]*internal.Event, 0, len(lessons))
			for _, l := range lessons {
				e, err := mapper.Event(l)
				if err != nil {
					logger.Warn("Skipping lesson", "lesson", mapper.Label(l), "error", err)
					continue
				}
				events = append(events, e)
			}
			logger.Info("Previewing lessons", "period", period.String(), "events", len(events))

			return ics.Encode(cmd.Root().Writer, events)
		},
	}
}
