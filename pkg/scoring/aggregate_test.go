package scoring

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/config"
)

func TestOrderPair(t *testing.T) {
	earlier := common.Event{ID: "x", Date: day(t, "2020-01-01")}
	later := common.Event{ID: "y", Date: day(t, "2020-02-01")}

	from, to := OrderPair(&later, &earlier)
	if from.ID != "x" || to.ID != "y" {
		t.Fatalf("expected x->y, got %s->%s", from.ID, to.ID)
	}

	// Equal dates break ties lexicographically by ID, in both call orders.
	a := common.Event{ID: "a", Date: day(t, "2020-01-01")}
	b := common.Event{ID: "b", Date: day(t, "2020-01-01")}
	f1, t1 := OrderPair(&a, &b)
	f2, t2 := OrderPair(&b, &a)
	if f1.ID != "a" || t1.ID != "b" || f2.ID != "a" || t2.ID != "b" {
		t.Fatalf("tie-break not deterministic: %s->%s vs %s->%s", f1.ID, t1.ID, f2.ID, t2.ID)
	}
}

// The Lehman scenario: a rumor three days before a bankruptcy filing with a
// shared entity and a configured causal pattern must produce an accepted link.
func TestScorePair_LehmanScenario(t *testing.T) {
	cfg := config.ScoringConfig{
		CausalPatternList: []config.CausalPattern{
			{FromType: "rumor", ToType: "bankruptcy", Strength: 0.8},
		},
	}
	s := mustScorer(t, cfg)

	a := common.Event{
		ID:       "A",
		Date:     day(t, "2008-09-12"),
		Type:     "rumor",
		Headline: "Rumors swirl about Lehman solvency",
		Entities: []string{"LehmanBrothers"},
	}
	b := common.Event{
		ID:       "B",
		Date:     day(t, "2008-09-15"),
		Type:     "bankruptcy",
		Headline: "Lehman Brothers files for bankruptcy",
		Entities: []string{"LehmanBrothers", "Barclays"},
	}

	link, accepted := s.ScorePair(context.Background(), &a, &b)
	if !accepted {
		t.Fatalf("expected link to be accepted, composite=%v", link.CompositeScore)
	}
	if link.From != "A" || link.To != "B" {
		t.Fatalf("expected A->B, got %s->%s", link.From, link.To)
	}
	if !closeTo(link.Components.EntityOverlap, 0.5) {
		t.Fatalf("expected entity overlap 0.5, got %v", link.Components.EntityOverlap)
	}
	if math.Abs(link.Components.Temporal-0.86) > 0.01 {
		t.Fatalf("expected temporal near 0.86 for 3-day gap, got %v", link.Components.Temporal)
	}
	if !closeTo(link.Components.Causality, 0.8) {
		t.Fatalf("expected causality 0.8, got %v", link.Components.Causality)
	}
	if link.CompositeScore < 0.2 {
		t.Fatalf("expected composite >= 0.2, got %v", link.CompositeScore)
	}
	if link.Threshold != 0.2 {
		t.Fatalf("expected recorded threshold 0.2, got %v", link.Threshold)
	}
	if link.Degraded {
		t.Fatal("link should not be degraded")
	}
}

func TestScorePair_BoundedComposite(t *testing.T) {
	// Extreme weights must not push the composite outside [0, 1].
	cfg := config.ScoringConfig{
		Weights: config.Weights{
			Temporal: 10, EntityOverlap: 10, Semantic: 10,
			Topic: 10, Causality: 10, Emotional: 10,
		},
	}
	s := mustScorer(t, cfg)

	a := common.Event{ID: "a", Date: day(t, "2020-01-01"), Type: "bankruptcy",
		Headline: "same text", Entities: []string{"X"}}
	b := common.Event{ID: "b", Date: day(t, "2020-01-01"), Type: "bankruptcy",
		Headline: "same text", Entities: []string{"X"}}

	link, _ := s.ScorePair(context.Background(), &a, &b)
	if link.CompositeScore < 0 || link.CompositeScore > 1 {
		t.Fatalf("composite out of bounds: %v", link.CompositeScore)
	}
}

func TestScorePair_DegradedSemantic(t *testing.T) {
	failing := TextSimilarityFunc(func(ctx context.Context, a, b string) (float64, error) {
		return 0, errors.New("provider unavailable")
	})
	s, err := NewScorer(config.ScoringConfig{}, failing)
	if err != nil {
		t.Fatalf("NewScorer failed: %v", err)
	}

	a := common.Event{ID: "a", Date: day(t, "2020-01-01"), Entities: []string{"X"}}
	b := common.Event{ID: "b", Date: day(t, "2020-01-02"), Entities: []string{"X"}}

	link, _ := s.ScorePair(context.Background(), &a, &b)
	if !link.Degraded {
		t.Fatal("expected degraded marker when semantic provider fails")
	}
	if link.Components.Semantic != 0 {
		t.Fatalf("failed semantic component must score 0, got %v", link.Components.Semantic)
	}
}

func TestScorePair_PanickingSemantic(t *testing.T) {
	panicking := TextSimilarityFunc(func(ctx context.Context, a, b string) (float64, error) {
		panic("malformed input")
	})
	s, err := NewScorer(config.ScoringConfig{}, panicking)
	if err != nil {
		t.Fatalf("NewScorer failed: %v", err)
	}

	a := common.Event{ID: "a", Date: day(t, "2020-01-01")}
	b := common.Event{ID: "b", Date: day(t, "2020-01-02")}

	link, _ := s.ScorePair(context.Background(), &a, &b)
	if !link.Degraded || link.Components.Semantic != 0 {
		t.Fatalf("panic must degrade the pair, got degraded=%v semantic=%v",
			link.Degraded, link.Components.Semantic)
	}
}

func TestComposite_WeightsApplied(t *testing.T) {
	cfg := config.ScoringConfig{
		Weights: config.Weights{Temporal: 1}, // all other weights zero
	}
	s := mustScorer(t, cfg)

	c := common.ComponentScores{Temporal: 0.5, EntityOverlap: 1, Semantic: 1,
		Topic: 1, Causality: 1, Emotional: 1}
	if got := s.Composite(c); !closeTo(got, 0.5) {
		t.Fatalf("expected only temporal to count, got %v", got)
	}
}
