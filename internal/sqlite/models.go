package sqlite

import (
	"errors"
	"strings"
	"time"

	"github.com/guilherme-santos/lessonsync/internal"
)

// timeFormat is fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

type Run struct {
	ID          string
	Calendar    string
	PeriodStart string `db:"period_start"`
	PeriodEnd   string `db:"period_end"`
	StartedAt   string `db:"started_at"`
	FinishedAt  string `db:"finished_at"`
	Created     int
	Updated     int
	Unchanged   int
	Failed      int
	Error       string
}

func newRun(r *internal.Report) Run {
	run := Run{
		ID:          r.RunID,
		Calendar:    r.Calendar.String(),
		PeriodStart: r.Period.Start.String(),
		PeriodEnd:   r.Period.End.String(),
		StartedAt:   r.StartedAt.UTC().Format(timeFormat),
		FinishedAt:  r.FinishedAt.UTC().Format(timeFormat),
		Created:     r.Created,
		Updated:     r.Updated,
		Unchanged:   r.Unchanged,
		Failed:      r.Failed,
	}
	if r.Err != nil {
		run.Error = r.Err.Error()
	}
	return run
}

func (r Run) Convert() *internal.Report {
	rep := &internal.Report{
		RunID:     r.ID,
		Created:   r.Created,
		Updated:   r.Updated,
		Unchanged: r.Unchanged,
		Failed:    r.Failed,
	}
	rep.Calendar.Platform, rep.Calendar.ID, _ = strings.Cut(r.Calendar, "/")
	rep.Period.Start, _ = internal.ParseDate(r.PeriodStart, time.UTC)
	rep.Period.End, _ = internal.ParseDate(r.PeriodEnd, time.UTC)
	rep.StartedAt, _ = time.Parse(timeFormat, r.StartedAt)
	rep.FinishedAt, _ = time.Parse(timeFormat, r.FinishedAt)
	if r.Error != "" {
		rep.Err = errors.New(r.Error)
	}
	return rep
}

type RunResult struct {
	RunID    string `db:"run_id"`
	Position int
	Lesson   string
	LessonID string `db:"lesson_id"`
	EventID  string `db:"event_id"`
	Action   string
	Error    string
}

func (r RunResult) Convert() internal.Result {
	res := internal.Result{
		Lesson:   r.Lesson,
		LessonID: r.LessonID,
		EventID:  r.EventID,
		Action:   internal.Action(r.Action),
	}
	if r.Error != "" {
		res.Err = errors.New(r.Error)
	}
	return res
}
