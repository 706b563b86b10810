package scoring

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/config"
)

func mustScorer(t *testing.T, cfg config.ScoringConfig) *Scorer {
	t.Helper()
	s, err := NewScorer(cfg, nil)
	if err != nil {
		t.Fatalf("NewScorer failed: %v", err)
	}
	return s
}

func day(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	return d
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTemporal_DecaysWithGap(t *testing.T) {
	s := mustScorer(t, config.ScoringConfig{TemporalWindowDays: 30})

	a := common.Event{ID: "a", Date: day(t, "2020-01-01")}
	same := common.Event{ID: "b", Date: day(t, "2020-01-01")}
	near := common.Event{ID: "c", Date: day(t, "2020-01-04")}
	far := common.Event{ID: "d", Date: day(t, "2020-01-20")}

	if got := s.Temporal(&a, &same); got != 1 {
		t.Fatalf("expected 1.0 for identical dates, got %v", got)
	}
	nearScore := s.Temporal(&a, &near)
	farScore := s.Temporal(&a, &far)
	if nearScore <= farScore {
		t.Fatalf("expected decay: near %v should exceed far %v", nearScore, farScore)
	}
	if nearScore <= 0 || nearScore > 1 || farScore <= 0 || farScore > 1 {
		t.Fatalf("scores out of (0,1]: near %v far %v", nearScore, farScore)
	}
}

func TestTemporal_ZeroOutsideWindow(t *testing.T) {
	s := mustScorer(t, config.ScoringConfig{TemporalWindowDays: 30})

	a := common.Event{ID: "a", Date: day(t, "2020-01-01")}
	edge := common.Event{ID: "b", Date: day(t, "2020-01-31")}
	outside := common.Event{ID: "c", Date: day(t, "2020-02-01")}

	if got := s.Temporal(&a, &edge); got == 0 {
		t.Fatalf("expected non-zero score exactly at window edge, got 0")
	}
	if got := s.Temporal(&a, &outside); got != 0 {
		t.Fatalf("expected exact 0 beyond window, got %v", got)
	}
}

func TestTemporal_DirectionIrrelevant(t *testing.T) {
	s := mustScorer(t, config.ScoringConfig{})

	a := common.Event{ID: "a", Date: day(t, "2020-01-01")}
	b := common.Event{ID: "b", Date: day(t, "2020-01-10")}
	if s.Temporal(&a, &b) != s.Temporal(&b, &a) {
		t.Fatal("temporal score must be symmetric")
	}
}

func TestEntityOverlap(t *testing.T) {
	s := mustScorer(t, config.ScoringConfig{})

	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"half overlap", []string{"LehmanBrothers"}, []string{"LehmanBrothers", "Barclays"}, 0.5},
		{"identical", []string{"AIG", "Citi"}, []string{"Citi", "AIG"}, 1},
		{"disjoint", []string{"AIG"}, []string{"Citi"}, 0},
		{"one empty", []string{"AIG"}, nil, 0},
		{"both empty", nil, nil, 0},
		{"duplicates collapse", []string{"AIG", "AIG"}, []string{"AIG"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := common.Event{ID: "a", Entities: tt.a}
			b := common.Event{ID: "b", Entities: tt.b}
			if got := s.EntityOverlap(&a, &b); !closeTo(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTopic_SharedAndAdjacent(t *testing.T) {
	cfg := config.ScoringConfig{
		TopicBuckets: map[string][]string{
			"bankruptcy":       {"credit", "liquidity"},
			"credit_downgrade": {"credit"},
			"earnings_miss":    {"market"},
			"stock_crash":      {"market"},
		},
		RelatedTopics:     [][2]string{{"credit", "market"}},
		PartialTopicScore: 0.3,
	}
	s := mustScorer(t, cfg)

	pair := func(ta, tb string) float64 {
		a := common.Event{ID: "a", Type: ta}
		b := common.Event{ID: "b", Type: tb}
		return s.Topic(&a, &b)
	}

	if got := pair("bankruptcy", "credit_downgrade"); got != 1 {
		t.Fatalf("shared category should score 1, got %v", got)
	}
	if got := pair("credit_downgrade", "earnings_miss"); !closeTo(got, 0.3) {
		t.Fatalf("adjacent categories should score partial, got %v", got)
	}
	if got := pair("earnings_miss", "stock_crash"); got != 1 {
		t.Fatalf("same category should score 1, got %v", got)
	}
}

func TestTopic_UnknownTypes(t *testing.T) {
	s := mustScorer(t, config.ScoringConfig{
		TopicBuckets:      map[string][]string{"bankruptcy": {"credit"}},
		PartialTopicScore: 0.3,
	})

	known := common.Event{ID: "a", Type: "bankruptcy"}
	unknownA := common.Event{ID: "b", Type: "alien_invasion"}
	unknownB := common.Event{ID: "c", Type: "volcano"}

	if got := s.Topic(&known, &unknownA); got != 0 {
		t.Fatalf("unknown vs known should score 0, got %v", got)
	}
	if got := s.Topic(&unknownA, &unknownB); !closeTo(got, 0.3) {
		t.Fatalf("two unknown types should score partial, got %v", got)
	}
}

func TestCausality_LookupAndDefault(t *testing.T) {
	cfg := config.ScoringConfig{
		CausalPatternList: []config.CausalPattern{
			{FromType: "rumor", ToType: "bankruptcy", Strength: 0.8, Explanation: "rumors foreshadow filings"},
		},
	}
	s := mustScorer(t, cfg)

	from := common.Event{ID: "a", Type: "rumor"}
	to := common.Event{ID: "b", Type: "bankruptcy"}

	strength, explanation := s.Causality(&from, &to)
	if !closeTo(strength, 0.8) {
		t.Fatalf("expected 0.8, got %v", strength)
	}
	if explanation == "" {
		t.Fatal("expected explanation for configured pattern")
	}

	// Reverse order is a different pair and must default to zero.
	strength, explanation = s.Causality(&to, &from)
	if strength != 0 || explanation != "" {
		t.Fatalf("reverse pair should default to 0, got %v %q", strength, explanation)
	}
}

func TestEmotional_AlignmentAndPriors(t *testing.T) {
	neg := -0.8
	pos := 0.8
	cfg := config.ScoringConfig{
		SentimentPriors: map[string]float64{"bankruptcy": -0.9},
	}
	s := mustScorer(t, cfg)

	a := common.Event{ID: "a", Sentiment: &neg}
	b := common.Event{ID: "b", Sentiment: &neg}
	c := common.Event{ID: "c", Sentiment: &pos}

	if got := s.Emotional(&a, &b); got != 1 {
		t.Fatalf("identical sentiment should score 1, got %v", got)
	}
	if got := s.Emotional(&a, &c); !closeTo(got, 1-1.6/2) {
		t.Fatalf("opposite sentiment mismatch: got %v", got)
	}

	// Event without explicit sentiment takes the type prior.
	prior := common.Event{ID: "d", Type: "bankruptcy"}
	withPrior := s.Emotional(&a, &prior)
	if !closeTo(withPrior, 1-math.Abs(-0.8-(-0.9))/2) {
		t.Fatalf("prior-backed sentiment mismatch: got %v", withPrior)
	}

	// Unlisted type defaults to neutral.
	neutral := common.Event{ID: "e", Type: "something_else"}
	if got := s.Emotional(&a, &neutral); !closeTo(got, 1-0.8/2) {
		t.Fatalf("neutral default mismatch: got %v", got)
	}
}

func TestEmotional_Bounds(t *testing.T) {
	s := mustScorer(t, config.ScoringConfig{})

	extreme := 5.0 // out-of-range input is clamped, not propagated
	a := common.Event{ID: "a", Sentiment: &extreme}
	b := common.Event{ID: "b"}
	got := s.Emotional(&a, &b)
	if got < 0 || got > 1 {
		t.Fatalf("emotional score out of bounds: %v", got)
	}
}

func TestKeywordSimilarity(t *testing.T) {
	k := NewKeywordSimilarity()
	ctx := context.Background()

	sim, err := k.Similarity(ctx, "Lehman files for bankruptcy protection", "Lehman bankruptcy filing shocks markets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim <= 0 || sim > 1 {
		t.Fatalf("expected similarity in (0,1], got %v", sim)
	}

	identical, _ := k.Similarity(ctx, "credit downgrade", "credit downgrade")
	if identical != 1 {
		t.Fatalf("identical text should score 1, got %v", identical)
	}

	empty, _ := k.Similarity(ctx, "", "anything at all")
	if empty != 0 {
		t.Fatalf("empty text should score 0, got %v", empty)
	}

	disjoint, _ := k.Similarity(ctx, "merger talks", "liquidity crunch")
	if disjoint != 0 {
		t.Fatalf("disjoint text should score 0, got %v", disjoint)
	}
}
