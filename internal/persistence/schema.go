package persistence

import (
	"context"
)

// initSchema creates all required tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		ticks INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		task_target INTEGER NOT NULL,
		completed INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tick_stats (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		searching INTEGER NOT NULL,
		waiting_for_help INTEGER NOT NULL,
		helping INTEGER NOT NULL,
		working INTEGER NOT NULL,
		tasks_idle INTEGER NOT NULL,
		tasks_active INTEGER NOT NULL,
		tasks_completed INTEGER NOT NULL,
		PRIMARY KEY (run_id, tick),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS transitions (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		task_id INTEGER NOT NULL DEFAULT 0,
		agent_id INTEGER NOT NULL DEFAULT 0,
		detail TEXT,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_transitions_run_tick ON transitions(run_id, tick);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
