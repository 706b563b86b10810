package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finvista/evograph/pkg/ai"
	"github.com/finvista/evograph/pkg/leaselock"
	"github.com/finvista/evograph/pkg/logger"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
)

// ProcessDeleteMessage removes a corpus: its events, committed links, runs,
// and any staged data. Takes the corpus lease so a concurrent run cannot
// commit into a half-deleted corpus.
func ProcessDeleteMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.ModelClient,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(QueueDeleteMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if data.CorpusID == "" {
		return fmt.Errorf("delete message has no corpus id")
	}

	st, err := newStorage(ctx, conn, nil)
	if err != nil {
		return err
	}

	locks := leaselock.New(conn)
	return locks.WithLease(ctx, leaselock.CorpusKey(data.CorpusID), leaselock.MaintenanceOptions(), func(ctx context.Context) error {
		if err := st.DeleteCorpus(ctx, data.CorpusID); err != nil {
			return fmt.Errorf("failed to delete corpus %s: %w", data.CorpusID, err)
		}
		logger.Info("[Queue] Corpus deleted", "corpus_id", data.CorpusID)
		return nil
	})
}
