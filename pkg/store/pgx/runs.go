package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finvista/evograph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

// CreateRun registers a new pending run.
func (s *EvolutionDBStorage) CreateRun(ctx context.Context, run *store.Run) error {
	status := run.Status
	if status == "" {
		status = store.RunStatusPending
	}

	_, err := s.conn.Exec(ctx, `
		INSERT INTO runs (id, corpus_id, kind, status, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, run.ID, run.CorpusID, run.Kind, status, nullableTime(run.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create run %s: %w", run.ID, err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// GetRun returns the run or store.ErrNotFound.
func (s *EvolutionDBStorage) GetRun(ctx context.Context, runID string) (*store.Run, error) {
	run := &store.Run{}
	var errMsg *string
	err := s.conn.QueryRow(ctx, `
		SELECT id, corpus_id, kind, status, error, link_count,
		       created_at, started_at, finished_at
		FROM runs
		WHERE id = $1
	`, runID).Scan(
		&run.ID, &run.CorpusID, &run.Kind, &run.Status, &errMsg, &run.LinkCount,
		&run.CreatedAt, &run.StartedAt, &run.FinishedAt,
	)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, fmt.Errorf("run %q: %w", runID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	if errMsg != nil {
		run.Error = *errMsg
	}
	return run, nil
}

// ListRuns returns the corpus runs, newest first.
func (s *EvolutionDBStorage) ListRuns(ctx context.Context, corpusID string) ([]*store.Run, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, corpus_id, kind, status, error, link_count,
		       created_at, started_at, finished_at
		FROM runs
		WHERE corpus_id = $1
		ORDER BY created_at DESC, id
	`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*store.Run, 0)
	for rows.Next() {
		run := &store.Run{}
		var errMsg *string
		if err := rows.Scan(
			&run.ID, &run.CorpusID, &run.Kind, &run.Status, &errMsg, &run.LinkCount,
			&run.CreatedAt, &run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if errMsg != nil {
			run.Error = *errMsg
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// MarkRunRunning transitions the run to running and stamps started_at.
func (s *EvolutionDBStorage) MarkRunRunning(ctx context.Context, runID string) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE runs
		SET status = $2, started_at = now()
		WHERE id = $1
	`, runID, store.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to mark run %s running: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %q: %w", runID, store.ErrNotFound)
	}
	return nil
}

// MarkRunFailed transitions the run to failed, records the cause, and
// discards any staged links.
func (s *EvolutionDBStorage) MarkRunFailed(ctx context.Context, runID string, cause string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE runs
		SET status = $2, error = $3, finished_at = now()
		WHERE id = $1
	`, runID, store.RunStatusFailed, cause)
	if err != nil {
		return fmt.Errorf("failed to mark run %s failed: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %q: %w", runID, store.ErrNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM staged_links WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to discard staged links for run %s: %w", runID, err)
	}

	return tx.Commit(ctx)
}

// CommitRun atomically publishes the run's staged links. Full runs replace
// the corpus link set; incremental runs append to it.
func (s *EvolutionDBStorage) CommitRun(ctx context.Context, runID string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if run.Kind == store.RunKindFull {
		if _, err := tx.Exec(ctx, `
			DELETE FROM evolution_links WHERE corpus_id = $1
		`, run.CorpusID); err != nil {
			return fmt.Errorf("failed to clear links for corpus %s: %w", run.CorpusID, err)
		}
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO evolution_links (
			corpus_id, run_id, from_event, to_event,
			composite_score, components, threshold, explanation, degraded
		)
		SELECT $2, run_id, from_event, to_event,
		       composite_score, components, threshold, explanation, degraded
		FROM staged_links
		WHERE run_id = $1
		ON CONFLICT (corpus_id, from_event, to_event) DO UPDATE SET
			run_id          = EXCLUDED.run_id,
			composite_score = EXCLUDED.composite_score,
			components      = EXCLUDED.components,
			threshold       = EXCLUDED.threshold,
			explanation     = EXCLUDED.explanation,
			degraded        = EXCLUDED.degraded
	`, runID, run.CorpusID)
	if err != nil {
		return fmt.Errorf("failed to publish links for run %s: %w", runID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM staged_links WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear staging for run %s: %w", runID, err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE runs
		SET status = $2, link_count = $3, finished_at = now()
		WHERE id = $1
	`, runID, store.RunStatusCompleted, tag.RowsAffected()); err != nil {
		return fmt.Errorf("failed to complete run %s: %w", runID, err)
	}

	return tx.Commit(ctx)
}
