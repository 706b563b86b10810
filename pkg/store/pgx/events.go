package pgx

import (
	"context"
	"fmt"

	"github.com/finvista/evograph/internal/util"
	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/store"

	"github.com/pgvector/pgvector-go"
)

const eventInsertChunkSize = 500

// SaveEvents upserts events into the corpus. When a model client is
// configured, each event's text is embedded and stored for similarity
// search; otherwise the embedding column stays null.
func (s *EvolutionDBStorage) SaveEvents(
	ctx context.Context,
	corpusID string,
	events []common.Event,
) error {
	if len(events) == 0 {
		return nil
	}

	var embeddings [][]float32
	if s.aiClient != nil {
		inputs := make([][]byte, len(events))
		for i := range events {
			inputs[i] = []byte(events[i].Text())
		}
		var err error
		embeddings, err = store.GenerateEmbeddings(ctx, s.aiClient, inputs)
		if err != nil {
			return fmt.Errorf("failed to embed events: %w", err)
		}
	}

	return store.ChunkRange(len(events), eventInsertChunkSize, func(start, end int) error {
		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		for i := start; i < end; i++ {
			ev := events[i]

			var embedding any
			if embeddings != nil {
				embedding = pgvector.NewVector(embeddings[i])
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO events (
					corpus_id, event_id, event_date, event_type,
					headline, description, entities, severity, sentiment, embedding
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (corpus_id, event_id) DO UPDATE SET
					event_date  = EXCLUDED.event_date,
					event_type  = EXCLUDED.event_type,
					headline    = EXCLUDED.headline,
					description = EXCLUDED.description,
					entities    = EXCLUDED.entities,
					severity    = EXCLUDED.severity,
					sentiment   = EXCLUDED.sentiment,
					embedding   = COALESCE(EXCLUDED.embedding, events.embedding)
			`,
				corpusID,
				ev.ID,
				ev.Date,
				util.SanitizePostgresText(ev.Type),
				util.SanitizePostgresText(ev.Headline),
				util.SanitizePostgresText(ev.Description),
				ev.Entities,
				string(ev.Severity),
				ev.Sentiment,
				embedding,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert event %s: %w", ev.ID, err)
			}
		}

		return tx.Commit(ctx)
	})
}

// GetEvents returns all events in the corpus sorted by date then ID.
func (s *EvolutionDBStorage) GetEvents(ctx context.Context, corpusID string) ([]common.Event, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT event_id, event_date, event_type, headline, description,
		       entities, severity, sentiment
		FROM events
		WHERE corpus_id = $1
		ORDER BY event_date, event_id
	`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetEventsByIDs returns the named events; unknown IDs are an error.
func (s *EvolutionDBStorage) GetEventsByIDs(
	ctx context.Context,
	corpusID string,
	ids []string,
) ([]common.Event, error) {
	ids = store.DedupeStrings(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT event_id, event_date, event_type, headline, description,
		       entities, severity, sentiment
		FROM events
		WHERE corpus_id = $1 AND event_id = ANY($2)
		ORDER BY event_date, event_id
	`, corpusID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) != len(ids) {
		found := make(map[string]struct{}, len(events))
		for _, ev := range events {
			found[ev.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				return nil, fmt.Errorf("event %q in corpus %q: %w", id, corpusID, store.ErrNotFound)
			}
		}
	}
	return events, nil
}

// CountEvents returns the number of events in the corpus.
func (s *EvolutionDBStorage) CountEvents(ctx context.Context, corpusID string) (int, error) {
	var count int
	err := s.conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM events WHERE corpus_id = $1
	`, corpusID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// FindSimilarEvents embeds the query text and returns up to topK events
// ordered by vector distance. Requires a configured model client.
func (s *EvolutionDBStorage) FindSimilarEvents(
	ctx context.Context,
	corpusID string,
	query string,
	topK int,
) ([]common.Event, error) {
	if s.aiClient == nil {
		return nil, fmt.Errorf("similarity search requires a model client")
	}
	if topK <= 0 {
		topK = 10
	}

	embedding, err := s.aiClient.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT event_id, event_date, event_type, headline, description,
		       entities, severity, sentiment
		FROM events
		WHERE corpus_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3
	`, corpusID, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// DeleteCorpus removes the corpus with its links, runs, and staged data.
func (s *EvolutionDBStorage) DeleteCorpus(ctx context.Context, corpusID string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	statements := []string{
		`DELETE FROM staged_links WHERE run_id IN (SELECT id FROM runs WHERE corpus_id = $1)`,
		`DELETE FROM evolution_links WHERE corpus_id = $1`,
		`DELETE FROM runs WHERE corpus_id = $1`,
		`DELETE FROM events WHERE corpus_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, corpusID); err != nil {
			return fmt.Errorf("failed to delete corpus %s: %w", corpusID, err)
		}
	}

	return tx.Commit(ctx)
}

type eventRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows eventRows) ([]common.Event, error) {
	events := make([]common.Event, 0)
	for rows.Next() {
		var (
			ev       common.Event
			severity string
		)
		if err := rows.Scan(
			&ev.ID, &ev.Date, &ev.Type, &ev.Headline, &ev.Description,
			&ev.Entities, &severity, &ev.Sentiment,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Severity = common.Severity(severity)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
