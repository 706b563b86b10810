package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/logger"
)

// ComputeIncremental returns only the links created by appending newEvents
// to an already-scored corpus. Every new event is compared against the
// pre-existing events inside its temporal window and against the other new
// events in the batch; pairs entirely within the existing corpus are never
// re-scored.
//
// The union of the caller's existing link set with the returned links is
// identical to a full recomputation over existing ∪ newEvents with the same
// configuration. Cost is O(k·(w+k)) for k new events against a window of w
// existing ones, instead of O((n+k)²).
func (e *Engine) ComputeIncremental(
	ctx context.Context,
	existing []common.Event,
	newEvents []common.Event,
) ([]common.EvolutionLink, error) {
	if len(newEvents) == 0 {
		return nil, nil
	}
	combined := make([]common.Event, 0, len(existing)+len(newEvents))
	combined = append(combined, existing...)
	combined = append(combined, newEvents...)
	if err := validateCorpus(combined); err != nil {
		return nil, fmt.Errorf("invalid corpus: %w", err)
	}

	sortedExisting := sortedCopy(existing)
	sortedNew := sortedCopy(newEvents)
	window := float64(e.scorer.Config().TemporalWindowDays)

	var links []common.EvolutionLink

	// New against existing: only events inside the anchor's temporal window
	// can link, and the existing corpus is date-sorted, so a binary search
	// finds the window start and the scan breaks at the window end.
	for i := range sortedNew {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		anchor := &sortedNew[i]
		windowStart := anchor.Date.Add(-time.Duration(window*24) * time.Hour)

		lo := sort.Search(len(sortedExisting), func(j int) bool {
			return !sortedExisting[j].Date.Before(windowStart)
		})
		for j := lo; j < len(sortedExisting); j++ {
			candidate := &sortedExisting[j]
			if common.DaysBetween(anchor, candidate) > window {
				break
			}
			if link, accepted := e.ScoreCandidate(ctx, anchor, candidate); accepted {
				links = append(links, link)
			}
		}
	}

	// New against new: one forward scan over the sorted batch covers every
	// unordered pair exactly once.
	for i := range sortedNew {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		anchor := &sortedNew[i]
		for j := i + 1; j < len(sortedNew); j++ {
			candidate := &sortedNew[j]
			if common.DaysBetween(anchor, candidate) > window {
				break
			}
			if link, accepted := e.ScoreCandidate(ctx, anchor, candidate); accepted {
				links = append(links, link)
			}
		}
	}

	common.SortLinks(links)
	logger.Info("[Engine] Incremental computation completed",
		"existing", len(existing), "new", len(newEvents), "links", len(links))
	return links, nil
}
