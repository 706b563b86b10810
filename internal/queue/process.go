package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/finvista/evograph/internal/storage"
	"github.com/finvista/evograph/internal/timing"
	"github.com/finvista/evograph/internal/util"
	"github.com/finvista/evograph/pkg/ai"
	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/config"
	"github.com/finvista/evograph/pkg/engine"
	"github.com/finvista/evograph/pkg/leaselock"
	"github.com/finvista/evograph/pkg/logger"
	"github.com/finvista/evograph/pkg/scoring"
	"github.com/finvista/evograph/pkg/scoring/semantic"
	"github.com/finvista/evograph/pkg/store"
	linkstorage "github.com/finvista/evograph/pkg/store/pgx"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
)

// ProcessRunMessage executes a full link computation run for a corpus.
func ProcessRunMessage(
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
		err = runFull(ctx, st, s3Client, aiClient, ch, data)
		return err
	})
	if err != nil {
		return err
	}

	recordRunDuration(ctx, conn, st, data, time.Since(start))
	return nil
}

// recordRunDuration feeds the run's wall time into the duration history
// used for ETA prediction. Best effort; failures only log.
func recordRunDuration(
	ctx context.Context,
	conn *pgxpool.Pool,
	st store.EvolutionStorage,
	data *QueueRunMsg,
	elapsed time.Duration,
) {
	count, err := st.CountEvents(ctx, data.CorpusID)
	if err != nil {
		logger.Warn("[Queue] Failed to count events for run stats", "run_id", data.RunID, "err", err)
		return
	}
	if err := timing.RecordRunDuration(ctx, conn, data.Kind, count, elapsed.Milliseconds()); err != nil {
		logger.Warn("[Queue] Failed to record run duration", "run_id", data.RunID, "err", err)
	}
}

func runFull(
	ctx context.Context,
	st store.EvolutionStorage,
	s3Client *awss3.Client,
	aiClient ai.ModelClient,
	ch *amqp091.Channel,
	data *QueueRunMsg,
) error {
	if err := st.MarkRunRunning(ctx, data.RunID); err != nil {
		return err
	}

	events, err := st.GetEvents(ctx, data.CorpusID)
	if err != nil {
		return fmt.Errorf("failed to load corpus %s: %w", data.CorpusID, err)
	}
	logger.Info("[Queue] Starting full run", "run_id", data.RunID, "corpus_id", data.CorpusID, "events", len(events))

	eng, err := newEngine(aiClient)
	if err != nil {
		return err
	}

	var cps engine.CheckpointStore
	checkpoints := storage.NewS3CheckpointStore(s3Client)
	if checkpoints != nil {
		cps = checkpoints
	}

	links, err := eng.ComputeFullRun(ctx, data.RunID, events, cps)
	if err != nil {
		return err
	}

	enrichExplanations(ctx, aiClient, events, links)

	if err := st.StageLinks(ctx, data.RunID, links); err != nil {
		return fmt.Errorf("failed to stage links for run %s: %w", data.RunID, err)
	}
	if err := st.CommitRun(ctx, data.RunID); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", data.RunID, err)
	}

	if checkpoints != nil {
		if err := checkpoints.Clear(ctx, data.RunID); err != nil {
			logger.Warn("[Queue] Failed to clear checkpoints", "run_id", data.RunID, "err", err)
		}
	}

	logger.Info("[Queue] Full run committed", "run_id", data.RunID, "links", len(links))
	publishRunEvent(ch, RunEventMsg{
		RunID:     data.RunID,
		CorpusID:  data.CorpusID,
		Kind:      data.Kind,
		Status:    store.RunStatusCompleted,
		LinkCount: len(links),
	})
	return nil
}

// newStorage builds the pgx-backed store, attaching the model client so
// ingested events get embeddings.
func newStorage(ctx context.Context, conn *pgxpool.Pool, aiClient ai.ModelClient) (store.EvolutionStorage, error) {
	opts := []linkstorage.EvolutionDBStorageOption{}
	if aiClient != nil {
		opts = append(opts, linkstorage.WithModelClient(aiClient))
	}
	return linkstorage.NewEvolutionDBStorageWithConnection(ctx, conn, opts...)
}

// newEngine assembles the scoring engine from the configured scoring file,
// the model-backed similarity when a client is available, and the worker
// parallelism from the environment.
func newEngine(aiClient ai.ModelClient) (*engine.Engine, error) {
	cfg, err := loadScoringConfig()
	if err != nil {
		return nil, err
	}

	var sem scoring.TextSimilarity
	if aiClient != nil && util.GetEnvBool("AI_SEMANTIC_SIMILARITY", true) {
		sem, err = semantic.NewEmbeddingSimilarity(semantic.NewEmbeddingSimilarityParams{
			Client: aiClient,
		})
		if err != nil {
			return nil, err
		}
	}

	return engine.NewEngine(engine.NewEngineParams{
		Config:      cfg,
		Semantic:    sem,
		Parallelism: int(util.GetEnvNumeric("RUN_PARALLELISM", 4)),
	})
}

// loadScoringConfig reads SCORING_CONFIG_PATH as a JSON ScoringConfig,
// falling back to the built-in defaults when unset.
func loadScoringConfig() (config.ScoringConfig, error) {
	path := util.GetEnvString("SCORING_CONFIG_PATH", "")
	if path == "" {
		return config.Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return config.ScoringConfig{}, fmt.Errorf("failed to read scoring config %s: %w", path, err)
	}
	var cfg config.ScoringConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return config.ScoringConfig{}, fmt.Errorf("failed to parse scoring config %s: %w", path, err)
	}
	return cfg, nil
}

// enrichExplanations replaces the pattern-table explanation with a model
// narrative for the strongest links. Failures leave the table explanation
// in place; narratives never change scores.
func enrichExplanations(
	ctx context.Context,
	aiClient ai.ModelClient,
	events []common.Event,
	links []common.EvolutionLink,
) {
	if aiClient == nil || !util.GetEnvBool("AI_EXPLAIN_LINKS", false) || len(links) == 0 {
		return
	}
	limit := int(util.GetEnvNumeric("AI_EXPLAIN_TOP", 20))
	if limit <= 0 {
		return
	}

	byID := make(map[string]*common.Event, len(events))
	for i := range events {
		byID[events[i].ID] = &events[i]
	}

	order := make([]int, len(links))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return links[order[a]].CompositeScore > links[order[b]].CompositeScore
	})
	if len(order) > limit {
		order = order[:limit]
	}

	explainer := ai.NewCausalExplainer(aiClient)
	for _, idx := range order {
		link := &links[idx]
		from, to := byID[link.From], byID[link.To]
		if from == nil || to == nil {
			continue
		}
		narrative, err := util.RetryWithContext(ctx, 2, func(ctx context.Context) (string, error) {
			return explainer.Explain(ctx, from, to, link.Explanation)
		})
		if err != nil {
			logger.Warn("[Queue] Failed to generate link narrative", "from", link.From, "to", link.To, "err", err)
			continue
		}
		if narrative != "" {
			link.Explanation = narrative
		}
	}
}

func publishRunEvent(ch *amqp091.Channel, event RunEventMsg) {
	if ch == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := PublishTopic(ch, "runs."+event.Status, body); err != nil {
		logger.Warn("[Queue] Failed to publish run event", "run_id", event.RunID, "err", err)
	}
}
