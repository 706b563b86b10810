// Package engine orchestrates evolution link computation over an event
// corpus: candidate pruning, parallel batch scoring, incremental updates
// for newly arrived events, and partition-level checkpointing.
//
// The engine performs no I/O of its own. Loading events and persisting
// links happen strictly before and after a computation, at the store
// boundary.
package engine

import (
	"fmt"

	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/config"
	"github.com/finvista/evograph/pkg/scoring"
)

// Engine computes evolution links for a fixed scoring configuration.
// It is immutable after construction and safe for concurrent use.
type Engine struct {
	scorer      *scoring.Scorer
	parallelism int
}

// NewEngineParams configures an Engine.
//
// Semantic selects the text similarity implementation; nil means the
// default keyword Jaccard. Parallelism is the number of worker goroutines
// for batch runs; values below 1 fall back to 1.
type NewEngineParams struct {
	Config      config.ScoringConfig
	Semantic    scoring.TextSimilarity
	Parallelism int
}

// NewEngine creates an Engine, applying configuration defaults and
// validating the result.
func NewEngine(params NewEngineParams) (*Engine, error) {
	scorer, err := scoring.NewScorer(params.Config, params.Semantic)
	if err != nil {
		return nil, err
	}

	parallelism := params.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	return &Engine{
		scorer:      scorer,
		parallelism: parallelism,
	}, nil
}

// Config returns the effective scoring configuration after defaulting.
func (e *Engine) Config() config.ScoringConfig {
	return e.scorer.Config()
}

// validateCorpus fails fast on events that violate the input contract:
// missing IDs, missing dates, or duplicate IDs. Well-formedness is the
// loading collaborator's job; a violation here means wrong links would
// silently follow, so it is an error rather than a skip.
func validateCorpus(events []common.Event) error {
	seen := make(map[string]struct{}, len(events))
	for i := range events {
		ev := &events[i]
		if ev.ID == "" {
			return fmt.Errorf("event at index %d has no id", i)
		}
		if ev.Date.IsZero() {
			return fmt.Errorf("event %q has no date", ev.ID)
		}
		if _, dup := seen[ev.ID]; dup {
			return fmt.Errorf("duplicate event id %q", ev.ID)
		}
		seen[ev.ID] = struct{}{}
	}
	return nil
}

// sortedCopy returns the corpus in canonical date order without mutating
// the caller's slice.
func sortedCopy(events []common.Event) []common.Event {
	sorted := make([]common.Event, len(events))
	copy(sorted, events)
	common.SortEventsByDate(sorted)
	return sorted
}
