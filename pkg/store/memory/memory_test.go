package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/store"
)

func testEvent(id string, day int, entities ...string) common.Event {
	return common.Event{
		ID:       id,
		Date:     time.Date(2008, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Type:     "credit_downgrade",
		Headline: "headline " + id,
		Entities: entities,
		Severity: common.SeverityMedium,
	}
}

func testLink(from, to string, score float64) common.EvolutionLink {
	return common.EvolutionLink{From: from, To: to, CompositeScore: score, Threshold: 0.2}
}

func TestSaveEventsUpsertAndOrder(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	if err := s.SaveEvents(ctx, "c1", []common.Event{testEvent("e2", 5), testEvent("e1", 0)}); err != nil {
		t.Fatalf("SaveEvents failed: %v", err)
	}
	updated := testEvent("e1", 0)
	updated.Headline = "revised"
	if err := s.SaveEvents(ctx, "c1", []common.Event{updated}); err != nil {
		t.Fatalf("SaveEvents upsert failed: %v", err)
	}

	events, err := s.GetEvents(ctx, "c1")
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != "e1" || events[1].ID != "e2" {
		t.Fatalf("events out of order: %s, %s", events[0].ID, events[1].ID)
	}
	if events[0].Headline != "revised" {
		t.Fatalf("upsert did not replace event: %q", events[0].Headline)
	}
}

func TestGetEventsReturnsCopies(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	if err := s.SaveEvents(ctx, "c1", []common.Event{testEvent("e1", 0, "lehman")}); err != nil {
		t.Fatalf("SaveEvents failed: %v", err)
	}
	events, _ := s.GetEvents(ctx, "c1")
	events[0].Entities[0] = "mutated"

	again, _ := s.GetEvents(ctx, "c1")
	if again[0].Entities[0] != "lehman" {
		t.Fatal("stored event mutated through returned copy")
	}
}

func TestGetEventsByIDsUnknown(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	if err := s.SaveEvents(ctx, "c1", []common.Event{testEvent("e1", 0)}); err != nil {
		t.Fatalf("SaveEvents failed: %v", err)
	}
	if _, err := s.GetEventsByIDs(ctx, "c1", []string{"e1", "missing"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunLifecycleAndCommit(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	run := &store.Run{ID: "run_1", CorpusID: "c1", Kind: store.RunKindFull}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.CreateRun(ctx, run); err == nil {
		t.Fatal("expected duplicate run error")
	}
	if err := s.MarkRunRunning(ctx, "run_1"); err != nil {
		t.Fatalf("MarkRunRunning failed: %v", err)
	}
	if err := s.StageLinks(ctx, "run_1", []common.EvolutionLink{testLink("e1", "e2", 0.5)}); err != nil {
		t.Fatalf("StageLinks failed: %v", err)
	}

	// staged links are invisible before commit
	links, err := s.GetLinks(ctx, "c1", store.LinkFilter{})
	if err != nil {
		t.Fatalf("GetLinks failed: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected no links before commit, got %d", len(links))
	}

	if err := s.CommitRun(ctx, "run_1"); err != nil {
		t.Fatalf("CommitRun failed: %v", err)
	}
	links, _ = s.GetLinks(ctx, "c1", store.LinkFilter{})
	if len(links) != 1 {
		t.Fatalf("expected 1 link after commit, got %d", len(links))
	}

	got, err := s.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != store.RunStatusCompleted || got.LinkCount != 1 {
		t.Fatalf("unexpected run state: %+v", got)
	}
	if got.StartedAt == nil || got.FinishedAt == nil {
		t.Fatal("expected timestamps on completed run")
	}
}

func TestFullRunReplacesIncrementalAppends(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	full := &store.Run{ID: "run_full", CorpusID: "c1", Kind: store.RunKindFull}
	if err := s.CreateRun(ctx, full); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.StageLinks(ctx, "run_full", []common.EvolutionLink{testLink("e1", "e2", 0.5)}); err != nil {
		t.Fatalf("StageLinks failed: %v", err)
	}
	if err := s.CommitRun(ctx, "run_full"); err != nil {
		t.Fatalf("CommitRun failed: %v", err)
	}

	inc := &store.Run{ID: "run_inc", CorpusID: "c1", Kind: store.RunKindIncremental}
	if err := s.CreateRun(ctx, inc); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.StageLinks(ctx, "run_inc", []common.EvolutionLink{testLink("e2", "e3", 0.4)}); err != nil {
		t.Fatalf("StageLinks failed: %v", err)
	}
	if err := s.CommitRun(ctx, "run_inc"); err != nil {
		t.Fatalf("CommitRun failed: %v", err)
	}

	links, _ := s.GetLinks(ctx, "c1", store.LinkFilter{})
	if len(links) != 2 {
		t.Fatalf("expected 2 links after incremental commit, got %d", len(links))
	}

	replace := &store.Run{ID: "run_full2", CorpusID: "c1", Kind: store.RunKindFull}
	if err := s.CreateRun(ctx, replace); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.StageLinks(ctx, "run_full2", []common.EvolutionLink{testLink("e1", "e3", 0.3)}); err != nil {
		t.Fatalf("StageLinks failed: %v", err)
	}
	if err := s.CommitRun(ctx, "run_full2"); err != nil {
		t.Fatalf("CommitRun failed: %v", err)
	}

	links, _ = s.GetLinks(ctx, "c1", store.LinkFilter{})
	if len(links) != 1 || links[0].To != "e3" {
		t.Fatalf("full run did not replace link set: %+v", links)
	}
}

func TestIncrementalCommitUpsertsSamePairs(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	first := &store.Run{ID: "run_inc1", CorpusID: "c1", Kind: store.RunKindIncremental}
	if err := s.CreateRun(ctx, first); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.StageLinks(ctx, "run_inc1", []common.EvolutionLink{
		testLink("e1", "e2", 0.5),
		testLink("e1", "e3", 0.4),
	}); err != nil {
		t.Fatalf("StageLinks failed: %v", err)
	}
	if err := s.CommitRun(ctx, "run_inc1"); err != nil {
		t.Fatalf("CommitRun failed: %v", err)
	}

	// Same pair again with a new score, plus one new pair.
	second := &store.Run{ID: "run_inc2", CorpusID: "c1", Kind: store.RunKindIncremental}
	if err := s.CreateRun(ctx, second); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.StageLinks(ctx, "run_inc2", []common.EvolutionLink{
		testLink("e1", "e2", 0.7),
		testLink("e2", "e3", 0.3),
	}); err != nil {
		t.Fatalf("StageLinks failed: %v", err)
	}
	if err := s.CommitRun(ctx, "run_inc2"); err != nil {
		t.Fatalf("CommitRun failed: %v", err)
	}

	links, _ := s.GetLinks(ctx, "c1", store.LinkFilter{})
	if len(links) != 3 {
		t.Fatalf("expected 3 links after upserting commit, got %d: %+v", len(links), links)
	}
	for _, link := range links {
		if link.From == "e1" && link.To == "e2" && link.CompositeScore != 0.7 {
			t.Fatalf("recommitted pair kept stale score: %+v", link)
		}
	}
}

func TestMarkRunFailedDiscardsStaged(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	run := &store.Run{ID: "run_1", CorpusID: "c1", Kind: store.RunKindFull}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.StageLinks(ctx, "run_1", []common.EvolutionLink{testLink("e1", "e2", 0.5)}); err != nil {
		t.Fatalf("StageLinks failed: %v", err)
	}
	if err := s.MarkRunFailed(ctx, "run_1", "worker crashed"); err != nil {
		t.Fatalf("MarkRunFailed failed: %v", err)
	}

	got, _ := s.GetRun(ctx, "run_1")
	if got.Status != store.RunStatusFailed || got.Error != "worker crashed" {
		t.Fatalf("unexpected run state: %+v", got)
	}
	if _, ok := s.staged["run_1"]; ok {
		t.Fatal("staged links not discarded on failure")
	}
}

func TestGetLinksFilters(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	if err := s.SaveEvents(ctx, "c1", []common.Event{
		testEvent("e1", 0, "Lehman Brothers"),
		testEvent("e2", 3, "AIG"),
		testEvent("e3", 6, "Lehman Brothers", "AIG"),
	}); err != nil {
		t.Fatalf("SaveEvents failed: %v", err)
	}

	run := &store.Run{ID: "run_1", CorpusID: "c1", Kind: store.RunKindFull}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.StageLinks(ctx, "run_1", []common.EvolutionLink{
		testLink("e1", "e2", 0.25),
		testLink("e1", "e3", 0.60),
		testLink("e2", "e3", 0.40),
	}); err != nil {
		t.Fatalf("StageLinks failed: %v", err)
	}
	if err := s.CommitRun(ctx, "run_1"); err != nil {
		t.Fatalf("CommitRun failed: %v", err)
	}

	minScore := 0.4
	links, _ := s.GetLinks(ctx, "c1", store.LinkFilter{MinScore: &minScore})
	if len(links) != 2 {
		t.Fatalf("min score filter: expected 2 links, got %d", len(links))
	}

	links, _ = s.GetLinks(ctx, "c1", store.LinkFilter{FromID: "e1"})
	if len(links) != 2 {
		t.Fatalf("from filter: expected 2 links, got %d", len(links))
	}

	// entity filter matches case-insensitively against either endpoint
	links, _ = s.GetLinks(ctx, "c1", store.LinkFilter{Entity: "aig"})
	if len(links) != 3 {
		t.Fatalf("entity filter: expected 3 links, got %d", len(links))
	}

	links, _ = s.GetLinks(ctx, "c1", store.LinkFilter{Limit: 1})
	if len(links) != 1 {
		t.Fatalf("limit: expected 1 link, got %d", len(links))
	}
}

func TestDeleteCorpus(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	if err := s.SaveEvents(ctx, "c1", []common.Event{testEvent("e1", 0)}); err != nil {
		t.Fatalf("SaveEvents failed: %v", err)
	}
	run := &store.Run{ID: "run_1", CorpusID: "c1", Kind: store.RunKindFull}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.DeleteCorpus(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCorpus failed: %v", err)
	}

	n, _ := s.CountEvents(ctx, "c1")
	if n != 0 {
		t.Fatalf("expected empty corpus, got %d events", n)
	}
	if _, err := s.GetRun(ctx, "run_1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected run to be deleted, got %v", err)
	}
}
