package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finvista/evograph/pkg/ai"
	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/leaselock"
	"github.com/finvista/evograph/pkg/logger"
	"github.com/finvista/evograph/pkg/store"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
)

// ProcessIncrementalMessage scores a batch of newly ingested events against
// the corpus and appends the accepted links. Links among pre-existing
// events are untouched.
func ProcessIncrementalMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.ModelClient,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	msg string,
) (err error) {
	data := new(QueueRunMsg)
	if err = json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if len(data.NewEventIDs) == 0 {
		return fmt.Errorf("incremental run %s has no new event ids", data.RunID)
	}

	st, err := newStorage(ctx, conn, aiClient)
	if err != nil {
		return err
	}

	defer func() {
		if err == nil || data.RunID == "" {
			return
		}
		failCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if failErr := st.MarkRunFailed(failCtx, data.RunID, err.Error()); failErr != nil {
			logger.Warn("[Queue] Failed to mark run as failed", "run_id", data.RunID, "err", failErr)
		}
		publishRunEvent(ch, RunEventMsg{
			RunID:    data.RunID,
			CorpusID: data.CorpusID,
			Kind:     data.Kind,
			Status:   store.RunStatusFailed,
			Error:    err.Error(),
		})
	}()

	start := time.Now()
	locks := leaselock.New(conn)
	err = locks.WithLease(ctx, leaselock.CorpusKey(data.CorpusID), leaselock.RunOptions(data.RunID), func(ctx context.Context) error {
		err = runIncremental(ctx, st, aiClient, ch, data)
		return err
	})
	if err != nil {
		return err
	}

	recordRunDuration(ctx, conn, st, data, time.Since(start))
	return nil
}

func runIncremental(
	ctx context.Context,
	st store.EvolutionStorage,
	aiClient ai.ModelClient,
	ch *amqp091.Channel,
	data *QueueRunMsg,
) error {
	if err := st.MarkRunRunning(ctx, data.RunID); err != nil {
		return err
	}

	all, err := st.GetEvents(ctx, data.CorpusID)
	if err != nil {
		return fmt.Errorf("failed to load corpus %s: %w", data.CorpusID, err)
	}

	newIDs := make(map[string]struct{}, len(data.NewEventIDs))
	for _, id := range data.NewEventIDs {
		newIDs[id] = struct{}{}
	}
	existing := make([]common.Event, 0, len(all))
	newEvents := make([]common.Event, 0, len(newIDs))
	for _, ev := range all {
		if _, ok := newIDs[ev.ID]; ok {
			newEvents = append(newEvents, ev)
		} else {
			existing = append(existing, ev)
		}
	}
	if len(newEvents) != len(newIDs) {
		return fmt.Errorf("corpus %s is missing %d of the batch events", data.CorpusID, len(newIDs)-len(newEvents))
	}

	logger.Info("[Queue] Starting incremental run",
		"run_id", data.RunID, "corpus_id", data.CorpusID,
		"existing", len(existing), "new", len(newEvents))

	eng, err := newEngine(aiClient)
	if err != nil {
		return err
	}

	links, err := eng.ComputeIncremental(ctx, existing, newEvents)
	if err != nil {
		return err
	}

	enrichExplanations(ctx, aiClient, all, links)

	if err := st.StageLinks(ctx, data.RunID, links); err != nil {
		return fmt.Errorf("failed to stage links for run %s: %w", data.RunID, err)
	}
	if err := st.CommitRun(ctx, data.RunID); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", data.RunID, err)
	}

	logger.Info("[Queue] Incremental run committed", "run_id", data.RunID, "links", len(links))
	publishRunEvent(ch, RunEventMsg{
		RunID:     data.RunID,
		CorpusID:  data.CorpusID,
		Kind:      data.Kind,
		Status:    store.RunStatusCompleted,
		LinkCount: len(links),
	})
	return nil
}
