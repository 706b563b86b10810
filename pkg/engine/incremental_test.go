package engine

import (
	"context"
	"testing"
	"time"

	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/config"
)

func TestComputeIncremental_Equivalence(t *testing.T) {
	corpus := testCorpus(t, 40)
	existing := corpus[:28]
	arrived := corpus[28:]

	cfg := config.ScoringConfig{Threshold: 0.15}
	e := mustEngine(t, cfg, 4)
	ctx := context.Background()

	existingLinks, err := e.ComputeFull(ctx, existing)
	if err != nil {
		t.Fatalf("existing run failed: %v", err)
	}

	newLinks, err := e.ComputeIncremental(ctx, existing, arrived)
	if err != nil {
		t.Fatalf("incremental run failed: %v", err)
	}

	full, err := e.ComputeFull(ctx, corpus)
	if err != nil {
		t.Fatalf("full run failed: %v", err)
	}

	union := make([]common.EvolutionLink, 0, len(existingLinks)+len(newLinks))
	union = append(union, existingLinks...)
	union = append(union, newLinks...)
	common.SortLinks(union)

	linksEqual(t, union, full)
}

func TestComputeIncremental_NewEventsInterleaved(t *testing.T) {
	// New events landing in the middle of the existing date range must link
	// both backward and forward.
	corpus := testCorpus(t, 30)
	var existing, arrived []common.Event
	for i, ev := range corpus {
		if i%5 == 2 {
			arrived = append(arrived, ev)
		} else {
			existing = append(existing, ev)
		}
	}

	e := mustEngine(t, config.ScoringConfig{Threshold: 0.15}, 2)
	ctx := context.Background()

	existingLinks, err := e.ComputeFull(ctx, existing)
	if err != nil {
		t.Fatalf("existing run failed: %v", err)
	}
	newLinks, err := e.ComputeIncremental(ctx, existing, arrived)
	if err != nil {
		t.Fatalf("incremental run failed: %v", err)
	}
	full, err := e.ComputeFull(ctx, corpus)
	if err != nil {
		t.Fatalf("full run failed: %v", err)
	}

	union := append(append([]common.EvolutionLink{}, existingLinks...), newLinks...)
	common.SortLinks(union)
	linksEqual(t, union, full)
}

func TestComputeIncremental_OnlyNewPairs(t *testing.T) {
	corpus := testCorpus(t, 20)
	existing := corpus[:15]
	arrived := corpus[15:]

	e := mustEngine(t, config.ScoringConfig{Threshold: 0.15}, 2)
	newLinks, err := e.ComputeIncremental(context.Background(), existing, arrived)
	if err != nil {
		t.Fatalf("incremental run failed: %v", err)
	}

	newIDs := make(map[string]struct{}, len(arrived))
	for _, ev := range arrived {
		newIDs[ev.ID] = struct{}{}
	}
	for _, l := range newLinks {
		_, fromNew := newIDs[l.From]
		_, toNew := newIDs[l.To]
		if !fromNew && !toNew {
			t.Fatalf("link %s->%s touches no new event", l.From, l.To)
		}
	}
}

func TestComputeIncremental_EmptyBatch(t *testing.T) {
	e := mustEngine(t, config.ScoringConfig{}, 2)
	links, err := e.ComputeIncremental(context.Background(), testCorpus(t, 10), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if links != nil {
		t.Fatalf("expected no links for empty batch, got %d", len(links))
	}
}

func TestComputeIncremental_DuplicateAgainstExisting(t *testing.T) {
	existing := []common.Event{{ID: "a", Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}}
	arrived := []common.Event{{ID: "a", Date: time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)}}

	e := mustEngine(t, config.ScoringConfig{}, 1)
	if _, err := e.ComputeIncremental(context.Background(), existing, arrived); err == nil {
		t.Fatal("expected error for id collision with existing corpus")
	}
}

func TestComputeIncremental_Idempotent(t *testing.T) {
	corpus := testCorpus(t, 30)
	existing := corpus[:20]
	arrived := corpus[20:]

	e := mustEngine(t, config.ScoringConfig{Threshold: 0.15}, 2)
	ctx := context.Background()

	first, err := e.ComputeIncremental(ctx, existing, arrived)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := e.ComputeIncremental(ctx, existing, arrived)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	linksEqual(t, second, first)
}
