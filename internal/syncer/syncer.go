package syncer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guilherme-santos/lessonsync/internal"
)

type (
	Event  = internal.Event
	Lesson = internal.Lesson
	Report = internal.Report
	Result = internal.Result
)

// DefaultConcurrency bounds the number of create/update calls in flight.
const DefaultConcurrency = 4

// Step is the planned action for a single lesson.
type Step struct {
	Lesson   string
	LessonID string
	Action   internal.Action
	// Event is the desired event. For updates it carries the id of the
	// existing event it replaces.
	Event *Event
	Err   error
}

type Syncer struct {
	provider internal.Provider
	mapper   *internal.Mapper

	Calendar    internal.Calendar
	Concurrency int
	// DryRun plans the run and reports it without writing to the calendar.
	DryRun bool

	now func() time.Time
}

func New(provider internal.Provider, mapper *internal.Mapper) *Syncer {
	return &Syncer{
		provider:    provider,
		mapper:      mapper,
		Concurrency: DefaultConcurrency,
		now:         time.Now,
	}
}

// Reconcile makes the calendar reflect lessons for the given period. Events
// are created or replaced, never deleted, and events not created from a
// lesson are left alone.
//
// The returned error is only set when the existing events can't be read; in
// that case nothing is written. Failures of single lessons are recorded in
// the report and don't stop the others.
func (s *Syncer) Reconcile(ctx context.Context, lessons []Lesson, period internal.Period) (*Report, error) {
	logger := internal.Logger(ctx).With("calendar", s.Calendar.String(), "period", period.String())

	report := &Report{
		Calendar:  s.Calendar,
		Period:    period,
		StartedAt: s.now(),
	}
	defer func() {
		report.FinishedAt = s.now()
	}()

	if len(lessons) == 0 {
		logger.Info("No lessons to sync")
		return report, nil
	}

	timeMin, timeMax := period.Window(s.mapper.Location)
	existing, err := s.provider.Events(ctx, timeMin, timeMax)
	if err != nil {
		logger.Error("Unable to get list of events", "error", err)
		report.Err = fmt.Errorf("listing events: %w", err)
		return report, report.Err
	}
	logger.Debug("Existing events loaded", "count", len(existing))

	steps := s.Plan(ctx, lessons, existing)
	results := make([]Result, len(steps))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency())
	for i, step := range steps {
		results[i] = step.result()
		if s.DryRun || (step.Action != internal.ActionCreate && step.Action != internal.ActionUpdate) {
			continue
		}
		g.Go(func() error {
			results[i] = s.apply(ctx, step)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		report.Add(res)
	}

	attrs := []any{
		"created", report.Created,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
		"dry_run", s.DryRun,
	}
	if report.Failed > 0 {
		logger.Warn("Sync complete with error!", attrs...)
	} else {
		logger.Info("Sync complete!", attrs...)
	}
	return report, nil
}

// Plan decides, for every lesson in order, whether its event has to be
// created, updated or left as it is. It doesn't call the provider.
func (s *Syncer) Plan(ctx context.Context, lessons []Lesson, existing []*Event) []Step {
	logger := internal.Logger(ctx)

	index := make(map[string]*Event, len(existing))
	for _, e := range existing {
		if e == nil || e.LessonID == "" {
			continue
		}
		if _, ok := index[e.LessonID]; ok {
			logger.Debug("Duplicated lesson event, keeping the first one", "lesson_id", e.LessonID, "event_id", e.ID)
			continue
		}
		index[e.LessonID] = e
	}

	seen := make(map[string]int, len(lessons))
	steps := make([]Step, len(lessons))

	for i, l := range lessons {
		id := internal.LessonID(l)
		step := Step{Lesson: s.mapper.Label(l), LessonID: id}

		desired, err := s.mapper.Event(l)
		if err != nil {
			logger.Warn("Unable to map lesson", "lesson", step.Lesson, "error", err)
			step.Action = internal.ActionFailed
			step.Err = err
			steps[i] = step
			continue
		}
		step.Event = desired

		if first, dup := seen[id]; dup {
			// Same logical lesson listed twice; one event is enough.
			logger.Info("Lesson listed twice, skipping the copy",
				"lesson", step.Lesson, "lesson_id", id, "first_action", steps[first].Action)
			step.Action = internal.ActionUnchanged
			step.Event.ID = steps[first].Event.ID
			steps[i] = step
			continue
		}
		seen[id] = i

		current, ok := index[id]
		switch {
		case !ok:
			step.Action = internal.ActionCreate
		case desired.SameSlot(current):
			step.Action = internal.ActionUnchanged
			desired.ID = current.ID
			logger.Debug("Event is up to date", "lesson", step.Lesson, "event_id", current.ID)
		default:
			step.Action = internal.ActionUpdate
			desired.ID = current.ID
		}
		steps[i] = step
	}
	return steps
}

func (s *Syncer) apply(ctx context.Context, step Step) Result {
	logger := internal.Logger(ctx)
	res := step.result()
	e := step.Event

	switch step.Action {
	case internal.ActionCreate:
		logger.Info("Creating event", "summary", e.Summary, "starts_at", formatDateTime(e.StartsAt))

		created, err := s.provider.CreateEvent(ctx, e)
		if err != nil {
			logger.Error("Unable to create event on the provider", "lesson", step.Lesson, "error", err)
			return failed(res, err)
		}
		res.EventID = created.ID

	case internal.ActionUpdate:
		logger.Info("Updating event", "event_id", e.ID, "summary", e.Summary, "starts_at", formatDateTime(e.StartsAt))

		if err := s.provider.UpdateEvent(ctx, e); err != nil {
			logger.Error("Unable to update event on the provider", "event_id", e.ID, "lesson", step.Lesson, "error", err)
			return failed(res, err)
		}
	}
	return res
}

func (s *Syncer) concurrency() int {
	if s.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return s.Concurrency
}

func (st Step) result() Result {
	res := Result{
		Lesson:   st.Lesson,
		LessonID: st.LessonID,
		Action:   st.Action,
		Err:      st.Err,
	}
	if st.Event != nil {
		res.EventID = st.Event.ID
	}
	return res
}

func failed(res Result, err error) Result {
	res.Action = internal.ActionFailed
	res.Err = err
	return res
}
