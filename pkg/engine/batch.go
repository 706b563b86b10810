package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/finvista/evograph/internal/util"
	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Partition is a contiguous range of anchor indexes in the date-sorted
// corpus. Partitions are disjoint and self-contained: the links produced by
// one partition depend only on its anchors and the events after them, so a
// completed partition is safe to checkpoint independently.
type Partition struct {
	Index int
	Lo    int // first anchor index, inclusive
	Hi    int // last anchor index, exclusive
}

// CheckpointStore persists completed partition results so an interrupted
// run can resume without redoing finished work. Implementations live at the
// infrastructure boundary; the engine only defines the contract.
type CheckpointStore interface {
	Load(ctx context.Context, runID string, partition int) ([]common.EvolutionLink, bool, error)
	Save(ctx context.Context, runID string, partition int, links []common.EvolutionLink) error
}

// ComputeFull scores the whole corpus and returns the accepted link set,
// sorted by (from, to). The result is a pure function of (corpus, config):
// it does not depend on worker count, partition scheme, or scheduling order.
func (e *Engine) ComputeFull(ctx context.Context, events []common.Event) ([]common.EvolutionLink, error) {
	return e.ComputeFullRun(ctx, "", events, nil)
}

// ComputeFullRun is ComputeFull with partition checkpointing. When cps is
// non-nil, each partition's links are loaded from the store if previously
// saved and persisted once computed. runID namespaces the checkpoints.
func (e *Engine) ComputeFullRun(
	ctx context.Context,
	runID string,
	events []common.Event,
	cps CheckpointStore,
) ([]common.EvolutionLink, error) {
	if err := validateCorpus(events); err != nil {
		return nil, fmt.Errorf("invalid corpus: %w", err)
	}

	sorted := sortedCopy(events)
	partitions := makePartitions(len(sorted), e.parallelism)

	logger.Debug("[Engine] Starting full computation",
		"events", len(sorted), "partitions", len(partitions), "workers", e.parallelism)

	results := make([][]common.EvolutionLink, len(partitions))

	var (
		progressMu sync.Mutex
		completed  int
	)
	markDone := func(partition int, links int) {
		progressMu.Lock()
		completed++
		done := completed
		progressMu.Unlock()
		p := util.BuildRunProgress(done, len(partitions), "scoring")
		logger.Debug("[Engine] Partition completed",
			"run_id", runID, "partition", partition, "links", links,
			"progress", util.FormatFraction(done, len(partitions)),
			"percent", p.Percentage)
	}

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.parallelism)
	for _, part := range partitions {
		p := part
		eg.Go(func() error {
			if cps != nil {
				links, ok, err := cps.Load(gCtx, runID, p.Index)
				if err != nil {
					return fmt.Errorf("load checkpoint for partition %d: %w", p.Index, err)
				}
				if ok {
					logger.Debug("[Engine] Partition restored from checkpoint",
						"run_id", runID, "partition", p.Index, "links", len(links))
					results[p.Index] = links
					markDone(p.Index, len(links))
					return nil
				}
			}

			links, err := e.computePartition(gCtx, sorted, p)
			if err != nil {
				return err
			}
			if cps != nil {
				if err := cps.Save(gCtx, runID, p.Index, links); err != nil {
					return fmt.Errorf("save checkpoint for partition %d: %w", p.Index, err)
				}
			}
			results[p.Index] = links
			markDone(p.Index, len(links))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Partitions own disjoint anchor sets, so concatenation cannot produce
	// duplicates; the merge is a plain union.
	var links []common.EvolutionLink
	for _, part := range results {
		links = append(links, part...)
	}
	common.SortLinks(links)

	logger.Info("[Engine] Full computation completed",
		"events", len(sorted), "links", len(links))
	return links, nil
}

// computePartition scans every anchor in the partition forward through the
// sorted corpus. The forward scan stops at the first event beyond the
// temporal window: dates only grow from there, so no later event can pass
// the temporal gate either.
func (e *Engine) computePartition(
	ctx context.Context,
	sorted []common.Event,
	p Partition,
) ([]common.EvolutionLink, error) {
	window := float64(e.scorer.Config().TemporalWindowDays)

	var links []common.EvolutionLink
	for i := p.Lo; i < p.Hi; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		anchor := &sorted[i]
		for j := i + 1; j < len(sorted); j++ {
			candidate := &sorted[j]
			if common.DaysBetween(anchor, candidate) > window {
				break
			}
			if link, accepted := e.ScoreCandidate(ctx, anchor, candidate); accepted {
				links = append(links, link)
			}
		}
	}
	return links, nil
}

// makePartitions splits n anchors into at most parts contiguous ranges.
func makePartitions(n, parts int) []Partition {
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	if n == 0 {
		return nil
	}

	partitions := make([]Partition, 0, parts)
	size := n / parts
	rest := n % parts
	lo := 0
	for i := 0; i < parts; i++ {
		hi := lo + size
		if i < rest {
			hi++
		}
		partitions = append(partitions, Partition{Index: i, Lo: lo, Hi: hi})
		lo = hi
	}
	return partitions
}
