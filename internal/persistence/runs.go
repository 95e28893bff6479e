package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// SaveRun saves or updates a run record.
// Uses ON CONFLICT to make saves idempotent.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, ticks, agents, task_target, completed, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			seed = excluded.seed,
			ticks = excluded.ticks,
			agents = excluded.agents,
			task_target = excluded.task_target,
			completed = excluded.completed,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, run.ID, run.Seed, run.Ticks, run.Agents, run.TaskTarget, run.Completed, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	run := &Run{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seed, ticks, agents, task_target, completed, started_at, finished_at
		FROM runs
		WHERE id = ?
	`, runID).Scan(&run.ID, &run.Seed, &run.Ticks, &run.Agents, &run.TaskTarget, &run.Completed, &run.StartedAt, &run.FinishedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs ordered by start time.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seed, ticks, agents, task_target, completed, started_at, finished_at
		FROM runs
		ORDER BY started_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		err := rows.Scan(&run.ID, &run.Seed, &run.Ticks, &run.Agents, &run.TaskTarget, &run.Completed, &run.StartedAt, &run.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// SaveTickStats stores per-tick population counts for a run in one
// transaction.
func (s *SQLiteStore) SaveTickStats(ctx context.Context, runID string, tickRows []TickRow) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tick_stats (run_id, tick, searching, waiting_for_help, helping, working, tasks_idle, tasks_active, tasks_completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare tick insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range tickRows {
		_, err := stmt.ExecContext(ctx, runID, r.Tick, r.Searching, r.WaitingForHelp, r.Helping, r.Working, r.TasksIdle, r.TasksActive, r.TasksCompleted)
		if err != nil {
			return fmt.Errorf("failed to insert tick %d: %w", r.Tick, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTickStats retrieves per-tick counts for a run in tick order.
func (s *SQLiteStore) GetTickStats(ctx context.Context, runID string) ([]TickRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tick, searching, waiting_for_help, helping, working, tasks_idle, tasks_active, tasks_completed
		FROM tick_stats
		WHERE run_id = ?
		ORDER BY tick
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tick stats: %w", err)
	}
	defer rows.Close()

	var out []TickRow
	for rows.Next() {
		var r TickRow
		if err := rows.Scan(&r.Tick, &r.Searching, &r.WaitingForHelp, &r.Helping, &r.Working, &r.TasksIdle, &r.TasksActive, &r.TasksCompleted); err != nil {
			return nil, fmt.Errorf("failed to scan tick row: %w", err)
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tick stats: %w", err)
	}
	return out, nil
}

// SaveTransitions stores a run's transition journal in one transaction.
// Sequence numbers preserve journal order.
func (s *SQLiteStore) SaveTransitions(ctx context.Context, runID string, transitions []Transition) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transitions (run_id, seq, tick, event_type, task_id, agent_id, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare transition insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range transitions {
		_, err := stmt.ExecContext(ctx, runID, t.Seq, t.Tick, t.EventType, t.TaskID, t.AgentID, t.Detail)
		if err != nil {
			return fmt.Errorf("failed to insert transition %d: %w", t.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTransitions retrieves a run's journal in sequence order.
func (s *SQLiteStore) GetTransitions(ctx context.Context, runID string) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, tick, event_type, task_id, agent_id, detail
		FROM transitions
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		if err := rows.Scan(&t.Seq, &t.Tick, &t.EventType, &t.TaskID, &t.AgentID, &t.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transitions: %w", err)
	}
	return out, nil
}
