package sqlite

func (s Storage) RunMigrations() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id VARCHAR NOT NULL PRIMARY KEY,
		calendar VARCHAR NOT NULL,
		period_start VARCHAR NOT NULL,
		period_end VARCHAR NOT NULL,
		started_at VARCHAR NOT NULL,
		finished_at VARCHAR NOT NULL,
		created INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		unchanged INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ""
	)`,
	`CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at)`,
	`CREATE TABLE IF NOT EXISTS run_results (
		run_id VARCHAR NOT NULL,
		position INTEGER NOT NULL,
		lesson VARCHAR NOT NULL,
		lesson_id VARCHAR NOT NULL,
		event_id VARCHAR NOT NULL DEFAULT "",
		action VARCHAR NOT NULL,
		error TEXT NOT NULL DEFAULT "",
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES runs (id)
	)`,
}
