// Package sqlite keeps an audit trail of sync runs. It is written after each
// run and never read back by the reconciliation.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/guilherme-santos/lessonsync/internal"
)

const DriverName = "sqlite3"

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sql.DB) *Storage {
	s := &Storage{
		db: sqlx.NewDb(db, DriverName),
	}
	err := s.RunMigrations()
	if err != nil {
		panic(fmt.Sprintf("sqlite: running migrations: %v", err))
	}
	return s
}

// SaveRun stores the report summary and one row per lesson result.
func (s Storage) SaveRun(ctx context.Context, report *internal.Report) error {
	run := newRun(report)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (id, calendar, period_start, period_end, started_at, finished_at,
			created, updated, unchanged, failed, error)
		VALUES (:id, :calendar, :period_start, :period_end, :started_at, :finished_at,
			:created, :updated, :unchanged, :failed, :error)
	`, run)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}

	for i, res := range report.Results {
		row := RunResult{
			RunID:    run.ID,
			Position: i,
			Lesson:   res.Lesson,
			LessonID: res.LessonID,
			EventID:  res.EventID,
			Action:   res.Action.String(),
		}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO run_results (run_id, position, lesson, lesson_id, event_id, action, error)
			VALUES (:run_id, :position, :lesson, :lesson_id, :event_id, :action, :error)
		`, row)
		if err != nil {
			return fmt.Errorf("result %q: %v", res.LessonID, err)
		}
	}
	return tx.Commit()
}

// Runs returns the latest runs first, without their per lesson results.
func (s Storage) Runs(ctx context.Context, limit int) ([]*internal.Report, error) {
	if limit <= 0 {
		limit = -1
	}

	var runs []Run
	err := s.db.SelectContext(ctx, &runs, `
		SELECT id, calendar, period_start, period_end, started_at, finished_at,
			created, updated, unchanged, failed, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}

	res := make([]*internal.Report, len(runs))
	for i, r := range runs {
		res[i] = r.Convert()
	}
	return res, nil
}

func (s Storage) RunResults(ctx context.Context, runID string) ([]internal.Result, error) {
	var rows []RunResult
	err := s.db.SelectContext(ctx, &rows, `
		SELECT run_id, position, lesson, lesson_id, event_id, action, error
		FROM run_results
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}

	res := make([]internal.Result, len(rows))
	for i, r := range rows {
		res[i] = r.Convert()
	}
	return res, nil
}
