package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"noctua/internal/core"

	sq "github.com/Masterminds/squirrel"
)

var runColumns = []string{"run_id", "started_at", "finished_at", "status", "current_step", "error", "steps_log"}

// StartRun opens a run in the running state.
func (s *Store) StartRun(ctx context.Context, runID string) error {
	query, args, err := sq.Insert("pipeline_runs").
		Columns("run_id", "started_at", "status", "steps_log").
		Values(runID, s.now(), core.RunRunning, "[]").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build run insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to start run %s: %w", runID, err)
	}
	return nil
}

// LogStep appends a step to a running run's log and makes it the current step.
func (s *Store) LogStep(ctx context.Context, runID, step, status, message string) error {
	switch status {
	case core.StepRunning, core.StepSuccess, core.StepSkipped, core.StepFailed:
	default:
		return fmt.Errorf("invalid step status %q", status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	run, err := getRun(ctx, tx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if run.Finished() {
		return fmt.Errorf("%w: %s", ErrRunFinished, runID)
	}

	steps, err := json.Marshal(append(run.Steps, core.RunStep{
		Step:      step,
		Status:    status,
		Message:   message,
		Timestamp: s.now(),
	}))
	if err != nil {
		return fmt.Errorf("failed to encode steps: %w", err)
	}

	query, args, err := sq.Update("pipeline_runs").
		Set("current_step", step).
		Set("steps_log", string(steps)).
		Where(sq.Eq{"run_id": runID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build step update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to log step: %w", err)
	}
	return tx.Commit()
}

// FinishRun moves a running run to success or failed.
func (s *Store) FinishRun(ctx context.Context, runID, status, errMsg string) error {
	if status != core.RunSuccess && status != core.RunFailed {
		return fmt.Errorf("invalid terminal run status %q", status)
	}

	query, args, err := sq.Update("pipeline_runs").
		Set("status", status).
		Set("finished_at", s.now()).
		Set("error", errMsg).
		Where(sq.Eq{"run_id": runID, "status": core.RunRunning}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build run update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	} else if n > 0 {
		return nil
	}

	// Nothing updated: tell unknown runs from finished ones.
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return fmt.Errorf("%w: %s", ErrRunFinished, runID)
}

// GetRun returns the run, or nil if there is none.
func (s *Store) GetRun(ctx context.Context, runID string) (*core.PipelineRun, error) {
	return getRun(ctx, s.db, runID)
}

// ListRuns returns runs, most recently started first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]core.PipelineRun, error) {
	query, args, err := limited(sq.Select(runColumns...).From("pipeline_runs").OrderBy("started_at DESC"), limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build run list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []core.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRun(ctx context.Context, q queryRower, runID string) (*core.PipelineRun, error) {
	query, args, err := sq.Select(runColumns...).From("pipeline_runs").Where(sq.Eq{"run_id": runID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build run query: %w", err)
	}

	run, err := scanRun(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

func scanRun(row rowScanner) (*core.PipelineRun, error) {
	var (
		run      core.PipelineRun
		finished sql.NullTime
		steps    string
	)
	if err := row.Scan(&run.ID, &run.StartedAt, &finished, &run.Status, &run.CurrentStep, &run.Error, &steps); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	if err := json.Unmarshal([]byte(steps), &run.Steps); err != nil {
		return nil, fmt.Errorf("failed to decode steps for run %s: %w", run.ID, err)
	}
	return &run, nil
}
