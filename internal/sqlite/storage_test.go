package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/guilherme-santos/lessonsync/internal"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	db, err := sql.Open(DriverName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// Every connection to :memory: is a distinct database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	return NewStorage(db)
}

func report(id string, startedAt time.Time) *internal.Report {
	r := &internal.Report{
		RunID:    id,
		Calendar: internal.Calendar{Platform: "google", ID: "primary"},
		Period: internal.Period{
			Start: internal.NewDate(2024, time.March, 4, time.UTC),
			End:   internal.NewDate(2024, time.March, 10, time.UTC),
		},
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(2 * time.Second),
	}
	r.Add(internal.Result{Lesson: "Algebra 2024-03-04 09:00", LessonID: "a", EventID: "ev1", Action: internal.ActionCreate})
	r.Add(internal.Result{Lesson: "History 2024-03-05 09:00", LessonID: "b", Action: internal.ActionFailed, Err: errors.New("boom")})
	return r
}

func TestStorage_SaveRun(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Date(2024, time.March, 3, 6, 0, 0, 0, time.UTC)

	if err := s.SaveRun(ctx, report("run-1", now)); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	failed := &internal.Report{
		RunID:     "run-2",
		Calendar:  internal.Calendar{Platform: "google", ID: "primary"},
		StartedAt: now.Add(time.Hour),
		Err:       errors.New("listing events: quota"),
	}
	if err := s.SaveRun(ctx, failed); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	runs, err := s.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "run-2" || runs[0].Err == nil || runs[0].Err.Error() != "listing events: quota" {
		t.Errorf("unexpected latest run %+v", runs[0])
	}

	got := runs[1]
	if got.Calendar.String() != "google/primary" {
		t.Errorf("unexpected calendar %q", got.Calendar)
	}
	if got.Period.String() != "2024-03-04..2024-03-10" {
		t.Errorf("unexpected period %q", got.Period)
	}
	if !got.StartedAt.Equal(now) || !got.FinishedAt.Equal(now.Add(2*time.Second)) {
		t.Errorf("unexpected timestamps %s %s", got.StartedAt, got.FinishedAt)
	}
	if got.Created != 1 || got.Failed != 1 || got.Err != nil {
		t.Errorf("unexpected counters %+v", got)
	}

	results, err := s.RunResults(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunResults() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].EventID != "ev1" || results[0].Action != internal.ActionCreate {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].Err == nil || results[1].Err.Error() != "boom" {
		t.Errorf("unexpected second result %+v", results[1])
	}

	latest, err := s.Runs(ctx, 1)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(latest) != 1 || latest[0].RunID != "run-2" {
		t.Errorf("expected only run-2, got %+v", latest)
	}
}

func TestStorage_SaveRunTwice(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	r := report("run-1", time.Now())
	if err := s.SaveRun(ctx, r); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := s.SaveRun(ctx, r); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}

	results, err := s.RunResults(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunResults() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected the first save to be kept whole, got %d results", len(results))
	}
}
