package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rtsim/internal/sched"
)

// timeLayout is fixed-width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// CreateRun registers a new run and returns its id.
func (s *SQLiteStore) CreateRun(ctx context.Context, policy string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, policy, started_at) VALUES (?, ?, ?)`,
		id, policy, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// AppendSlots stores timeline slots in order.
func (s *SQLiteStore) AppendSlots(ctx context.Context, runID string, slots []sched.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO slots (run_id, start_at, end_at, task_id, name, kind) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare slot insert: %w", err)
	}
	defer stmt.Close()

	for _, sl := range slots {
		if _, err := stmt.ExecContext(ctx, runID, sl.Start, sl.End, int64(sl.TaskID), sl.Name, string(sl.Kind)); err != nil {
			return fmt.Errorf("failed to insert slot at %d: %w", sl.Start, err)
		}
	}
	return tx.Commit()
}

// FinishRun closes a run and stores the final state of every task.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, now int64, ticks int, tasks []sched.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET finished = 1, sim_now = ?, ticks = ?, task_count = ? WHERE id = ?`,
		now, ticks, len(tasks), runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_results WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}
	for _, t := range tasks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO task_results
				(run_id, task_id, name, arrival, exec, deadline, period, ran, releases, finished, missed, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, int64(t.ID), t.Name, t.Arrival, t.Exec, t.Deadline, t.Period, t.Ran, t.Releases, t.Finished, t.Missed, t.FinishedAt)
		if err != nil {
			return fmt.Errorf("failed to insert result for task %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const runColumns = `id, policy, started_at, finished, sim_now, ticks, task_count`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r       Run
		started string
	)
	if err := row.Scan(&r.ID, &r.Policy, &started, &r.Finished, &r.Now, &r.Ticks, &r.Tasks); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: bad started_at %q: %w", r.ID, started, err)
	}
	r.StartedAt = t
	return r, nil
}

// ListRuns returns every run, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// GetSlots returns the recorded timeline of a run in insertion order.
func (s *SQLiteStore) GetSlots(ctx context.Context, runID string) ([]sched.Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_at, end_at, task_id, name, kind FROM slots WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var slots []sched.Slot
	for rows.Next() {
		var (
			sl     sched.Slot
			taskID int64
			kind   string
		)
		if err := rows.Scan(&sl.Start, &sl.End, &taskID, &sl.Name, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		sl.TaskID = sched.TaskID(taskID)
		sl.Kind = sched.SlotKind(kind)
		slots = append(slots, sl)
	}
	return slots, rows.Err()
}

// GetResults returns the per-task outcome of a finished run in task id order.
func (s *SQLiteStore) GetResults(ctx context.Context, runID string) ([]TaskResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, name, arrival, exec, deadline, period, ran, releases, finished, missed, finished_at
		FROM task_results WHERE run_id = ? ORDER BY task_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []TaskResult
	for rows.Next() {
		var (
			r      TaskResult
			taskID int64
		)
		if err := rows.Scan(&taskID, &r.Name, &r.Arrival, &r.Exec, &r.Deadline, &r.Period,
			&r.Ran, &r.Releases, &r.Finished, &r.Missed, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.TaskID = sched.TaskID(taskID)
		results = append(results, r)
	}
	return results, rows.Err()
}
