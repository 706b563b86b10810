package pgx

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finvista/evograph/internal/util"
	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/store"
)

const linkInsertChunkSize = 1000

// StageLinks appends links to the run's staging area. Staged links are not
// visible to GetLinks until the run commits.
func (s *EvolutionDBStorage) StageLinks(
	ctx context.Context,
	runID string,
	links []common.EvolutionLink,
) error {
	if len(links) == 0 {
		return nil
	}

	return store.ChunkRange(len(links), linkInsertChunkSize, func(start, end int) error {
		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		for _, link := range links[start:end] {
			components, err := json.Marshal(link.Components)
			if err != nil {
				return fmt.Errorf("failed to marshal components for %s->%s: %w", link.From, link.To, err)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO staged_links (
					run_id, from_event, to_event,
					composite_score, components, threshold, explanation, degraded
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`,
				runID,
				link.From,
				link.To,
				link.CompositeScore,
				components,
				link.Threshold,
				util.SanitizePostgresText(link.Explanation),
				link.Degraded,
			); err != nil {
				return fmt.Errorf("failed to stage link %s->%s: %w", link.From, link.To, err)
			}
		}

		return tx.Commit(ctx)
	})
}

// GetLinks returns committed links matching the filter, sorted by source
// then target event ID.
func (s *EvolutionDBStorage) GetLinks(
	ctx context.Context,
	corpusID string,
	filter store.LinkFilter,
) ([]common.EvolutionLink, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`
		SELECT l.from_event, l.to_event, l.composite_score, l.components,
		       l.threshold, l.explanation, l.degraded
		FROM evolution_links l
		WHERE l.corpus_id = $1
	`)
	args = append(args, corpusID)

	if filter.MinScore != nil {
		args = append(args, *filter.MinScore)
		fmt.Fprintf(&sb, " AND l.composite_score >= $%d", len(args))
	}
	if filter.FromID != "" {
		args = append(args, filter.FromID)
		fmt.Fprintf(&sb, " AND l.from_event = $%d", len(args))
	}
	if filter.ToID != "" {
		args = append(args, filter.ToID)
		fmt.Fprintf(&sb, " AND l.to_event = $%d", len(args))
	}
	if filter.Entity != "" {
		args = append(args, strings.ToLower(filter.Entity))
		fmt.Fprintf(&sb, ` AND EXISTS (
			SELECT 1 FROM events e
			WHERE e.corpus_id = l.corpus_id
			  AND e.event_id IN (l.from_event, l.to_event)
			  AND $%d = ANY(SELECT lower(unnest(e.entities)))
		)`, len(args))
	}

	sb.WriteString(" ORDER BY l.from_event, l.to_event")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := s.conn.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	links := make([]common.EvolutionLink, 0)
	for rows.Next() {
		var (
			link       common.EvolutionLink
			components []byte
		)
		if err := rows.Scan(
			&link.From, &link.To, &link.CompositeScore, &components,
			&link.Threshold, &link.Explanation, &link.Degraded,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		if err := json.Unmarshal(components, &link.Components); err != nil {
			return nil, fmt.Errorf("failed to unmarshal components for %s->%s: %w", link.From, link.To, err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}
