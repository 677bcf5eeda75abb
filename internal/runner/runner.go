// Package runner performs a complete sync of next week's lessons and
// describes the outcome as an HTTP style response.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/guilherme-santos/lessonsync/internal"
	"github.com/guilherme-santos/lessonsync/internal/syncer"
)

const noLessons = "No lessons"

type LessonSource interface {
	Lessons(context.Context, internal.Period) ([]internal.Lesson, error)
}

type History interface {
	SaveRun(context.Context, *internal.Report) error
}

// Response is the outcome of a run. Body is plain text when there was
// nothing to sync and JSON otherwise.
type Response struct {
	StatusCode int
	Body       string
}

type summary struct {
	Message   string `json:"message"`
	Count     int    `json:"count"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
	Failed    int    `json:"failed"`
}

type failure struct {
	Message   string `json:"message"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

type Runner struct {
	Source LessonSource
	Syncer *syncer.Syncer
	// History is optional.
	History  History
	Location *time.Location

	Now func() time.Time
}

func New(source LessonSource, s *syncer.Syncer, loc *time.Location) *Runner {
	return &Runner{
		Source:   source,
		Syncer:   s,
		Location: loc,
		Now:      time.Now,
	}
}

// Run syncs the week after the current one. The error is only set when the
// run failed as a whole; the response describes it either way.
func (r *Runner) Run(ctx context.Context) (Response, error) {
	now := r.now()
	period := internal.NextWeek(now, r.Location)
	runID := uuid.NewString()

	logger := internal.Logger(ctx).With("run_id", runID)
	ctx = internal.ContextWithLogger(ctx, logger)
	logger.Info("Starting sync", "period", period.String())

	lessons, err := r.Source.Lessons(ctx, period)
	if err != nil {
		err = fmt.Errorf("fetching lessons: %w", err)
		logger.Error("Unable to fetch lessons", "error", err)
		r.record(ctx, &internal.Report{
			RunID:      runID,
			Calendar:   r.Syncer.Calendar,
			Period:     period,
			StartedAt:  now,
			FinishedAt: r.now(),
			Err:        err,
		})
		return failed("Unable to fetch lessons", err), err
	}

	report, err := r.Syncer.Reconcile(ctx, lessons, period)
	report.RunID = runID
	r.record(ctx, report)
	if err != nil {
		return failed("Sync failed", err), err
	}

	if len(lessons) == 0 {
		return Response{StatusCode: http.StatusOK, Body: noLessons}, nil
	}

	msg := "Sync completed"
	if report.Failed > 0 {
		msg = "Sync completed with failures"
	}
	return respond(http.StatusOK, summary{
		Message:   msg,
		Count:     report.Total(),
		Created:   report.Created,
		Updated:   report.Updated,
		Unchanged: report.Unchanged,
		Failed:    report.Failed,
	}), nil
}

func (r *Runner) record(ctx context.Context, report *internal.Report) {
	if r.History == nil {
		return
	}
	if err := r.History.SaveRun(ctx, report); err != nil {
		internal.Logger(ctx).Warn("Unable to record run", "error", err)
	}
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func failed(msg string, err error) Response {
	return respond(http.StatusBadGateway, failure{
		Message:   msg,
		Error:     err.Error(),
		Retryable: internal.IsRetryable(err),
	})
}

func respond(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		return Response{StatusCode: http.StatusInternalServerError, Body: err.Error()}
	}
	return Response{StatusCode: status, Body: string(body)}
}
