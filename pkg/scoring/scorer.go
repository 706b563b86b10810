// Package scoring implements the six component scorers and the composite
// aggregation that decide whether two financial events are linked by an
// evolution relationship.
//
// All scorers are pure functions over in-memory data. The only impure edge
// is the pluggable TextSimilarity implementation, whose failures are
// degraded to a zero semantic score rather than aborting a run.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/config"
)

// unknownTopic is the synthetic category for event types absent from the
// topic buckets. It shares no adjacency with anything, including itself;
// two unknown types still earn the partial score so a pair of unclassified
// events is not treated as certainly unrelated.
const unknownTopic = "unknown"

// Scorer evaluates ordered event pairs against one ScoringConfig. All rule
// tables are captured at construction so a Scorer is immutable, safe for
// concurrent use, and free of module-level state.
type Scorer struct {
	cfg      config.ScoringConfig
	alpha    float64
	topics   map[string][]string
	adjacent map[[2]string]struct{}
	explain  map[config.TypePair]string
	semantic TextSimilarity
}

// NewScorer builds a Scorer from the given configuration and semantic
// similarity implementation. A nil semantic falls back to keyword Jaccard.
func NewScorer(cfg config.ScoringConfig, semantic TextSimilarity) (*Scorer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	if semantic == nil {
		semantic = NewKeywordSimilarity()
	}

	adjacent := make(map[[2]string]struct{}, len(cfg.RelatedTopics)*2)
	for _, pair := range cfg.RelatedTopics {
		adjacent[[2]string{pair[0], pair[1]}] = struct{}{}
		adjacent[[2]string{pair[1], pair[0]}] = struct{}{}
	}

	explain := make(map[config.TypePair]string)
	for _, p := range cfg.CausalPatternList {
		if p.Explanation != "" {
			explain[config.TypePair{From: p.FromType, To: p.ToType}] = p.Explanation
		}
	}

	return &Scorer{
		cfg: cfg,
		// Decay constant chosen so TCDI reaches 0.01 at the window edge.
		alpha:    math.Log(1.0/0.01) / float64(cfg.TemporalWindowDays),
		topics:   cfg.TopicBuckets,
		adjacent: adjacent,
		explain:  explain,
		semantic: semantic,
	}, nil
}

// Config returns the effective configuration after defaulting.
func (s *Scorer) Config() config.ScoringConfig {
	return s.cfg
}

// Temporal computes the Temporal Correlation Decay Index e^(-alpha*dt) for
// the absolute day gap between the two events. It returns a value in (0, 1]
// inside the window and exactly 0 beyond it; the hard zero doubles as the
// pruning signal for sorted scans.
func (s *Scorer) Temporal(a, b *common.Event) float64 {
	dt := common.DaysBetween(a, b)
	if dt > float64(s.cfg.TemporalWindowDays) {
		return 0
	}
	return math.Exp(-s.alpha * dt)
}

// EntityOverlap computes Jaccard similarity of the two entity sets. Either
// set being empty yields 0; two empty sets also yield 0 so absence of
// entities never manufactures a false positive.
func (s *Scorer) EntityOverlap(a, b *common.Event) float64 {
	if len(a.Entities) == 0 || len(b.Entities) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a.Entities))
	for _, e := range a.Entities {
		setA[e] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b.Entities))
	for _, e := range b.Entities {
		setB[e] = struct{}{}
	}

	intersection := 0
	for e := range setA {
		if _, ok := setB[e]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Semantic runs the pluggable text similarity over the two event texts.
func (s *Scorer) Semantic(ctx context.Context, a, b *common.Event) (float64, error) {
	sim, err := s.semantic.Similarity(ctx, a.Text(), b.Text())
	if err != nil {
		return 0, err
	}
	return clamp01(sim), nil
}

// Topic scores the coarse topic relationship of the two event types: 1 for
// a shared category, the configured partial score for adjacent categories,
// 0 otherwise.
func (s *Scorer) Topic(a, b *common.Event) float64 {
	catsA := s.categories(a.Type)
	catsB := s.categories(b.Type)

	if catsA == nil && catsB == nil {
		return s.cfg.PartialTopicScore
	}
	if catsA == nil || catsB == nil {
		return 0
	}

	best := 0.0
	for _, ca := range catsA {
		for _, cb := range catsB {
			if ca == cb {
				return 1
			}
			if _, ok := s.adjacent[[2]string{ca, cb}]; ok {
				best = s.cfg.PartialTopicScore
			}
		}
	}
	return best
}

// categories returns nil for the synthetic unknown category.
func (s *Scorer) categories(eventType string) []string {
	cats, ok := s.topics[eventType]
	if !ok || len(cats) == 0 {
		return nil
	}
	return cats
}

// Causality looks up the causal strength for the ordered type pair, along
// with any advisory explanation. Unknown pairs score 0. The explanation
// never influences the composite score.
func (s *Scorer) Causality(from, to *common.Event) (float64, string) {
	pair := config.TypePair{From: from.Type, To: to.Type}
	strength, ok := s.cfg.CausalPatterns[pair]
	if !ok {
		return 0, ""
	}
	return strength, s.explain[pair]
}

// Emotional measures sentiment alignment: identical sentiment yields 1,
// maximally opposite yields 0. Missing sentiments fall back to the per-type
// prior, then neutral.
func (s *Scorer) Emotional(a, b *common.Event) float64 {
	return 1 - math.Abs(s.sentiment(a)-s.sentiment(b))/2
}

func (s *Scorer) sentiment(e *common.Event) float64 {
	if e.Sentiment != nil {
		return clampSentiment(*e.Sentiment)
	}
	if prior, ok := s.cfg.SentimentPriors[e.Type]; ok {
		return clampSentiment(prior)
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampSentiment(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
