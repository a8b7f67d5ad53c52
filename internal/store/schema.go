package store

import "context"

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		policy TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished INTEGER NOT NULL DEFAULT 0,
		sim_now INTEGER NOT NULL DEFAULT 0,
		ticks INTEGER NOT NULL DEFAULT 0,
		task_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS slots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		start_at INTEGER NOT NULL,
		end_at INTEGER NOT NULL,
		task_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_slots_run ON slots(run_id, id);

	CREATE TABLE IF NOT EXISTS task_results (
		run_id TEXT NOT NULL,
		task_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		arrival INTEGER NOT NULL,
		exec INTEGER NOT NULL,
		deadline INTEGER NOT NULL,
		period INTEGER NOT NULL,
		ran INTEGER NOT NULL,
		releases INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		missed INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		PRIMARY KEY (run_id, task_id),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
