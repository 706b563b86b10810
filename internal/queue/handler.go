package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finvista/evograph/internal/util"
	"github.com/finvista/evograph/pkg/logger"
	"github.com/finvista/evograph/pkg/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
)

// RecoverStaleRuns requeues runs that have been stuck in "running" longer
// than the stale threshold. Happens on worker startup: a run left in that
// state means its worker died mid-computation; its corpus lease has expired
// and its checkpoints make the rerun cheap.
func RecoverStaleRuns(
	ctx context.Context,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
) error {
	staleMinutes := util.GetEnvNumeric("RUN_STALE_MINUTES", 30)

	rows, err := conn.Query(ctx, `
		UPDATE runs
		SET status = $1, started_at = NULL
		WHERE status = $2
		  AND started_at < now() - ($3::bigint * interval '1 minute')
		RETURNING id, corpus_id, kind
	`, store.RunStatusPending, store.RunStatusRunning, int64(staleMinutes))
	if err != nil {
		return fmt.Errorf("failed to reset stale runs: %w", err)
	}
	defer rows.Close()

	type staleRun struct {
		id       string
		corpusID string
		kind     string
	}
	stale := make([]staleRun, 0)
	for rows.Next() {
		var r staleRun
		if err := rows.Scan(&r.id, &r.corpusID, &r.kind); err != nil {
			return fmt.Errorf("failed to scan stale run: %w", err)
		}
		stale = append(stale, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(stale) == 0 {
		logger.Debug("[Queue] No stale runs found")
		return nil
	}
	logger.Info("[Queue] Found stale runs", "count", len(stale))

	for _, r := range stale {
		targetQueue := RunQueue
		var newEventIDs []string
		if r.kind == store.RunKindIncremental {
			// incremental batches are not replayable without their event
			// list; fail them so the producer can resubmit
			failErr := markStaleIncrementalFailed(ctx, conn, r.id)
			if failErr != nil {
				logger.Error("[Queue] Failed to fail stale incremental run", "run_id", r.id, "err", failErr)
			}
			continue
		}

		correlationID, err := util.NewCorrelationID()
		if err != nil {
			logger.Error("[Queue] Failed to generate correlation id", "run_id", r.id, "err", err)
			continue
		}

		msg := QueueRunMsg{
			Message:       "Recovered stale run",
			RunID:         r.id,
			CorpusID:      r.corpusID,
			Kind:          r.kind,
			NewEventIDs:   newEventIDs,
			CorrelationID: correlationID,
		}
		body, err := json.Marshal(msg)
		if err != nil {
			logger.Error("[Queue] Failed to marshal recovery message", "run_id", r.id, "err", err)
			continue
		}
		if err := PublishFIFO(ch, targetQueue, body); err != nil {
			logger.Error("[Queue] Failed to requeue stale run", "run_id", r.id, "err", err)
			continue
		}
		logger.Info("[Queue] Requeued stale run", "run_id", r.id, "corpus_id", r.corpusID)
	}

	return nil
}

func markStaleIncrementalFailed(ctx context.Context, conn *pgxpool.Pool, runID string) error {
	_, err := conn.Exec(ctx, `
		UPDATE runs
		SET status = $2, error = 'worker lost; resubmit the batch', finished_at = now()
		WHERE id = $1
	`, runID, store.RunStatusFailed)
	return err
}
