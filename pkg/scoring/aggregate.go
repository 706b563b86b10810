package scoring

import (
	"context"

	"github.com/finvista/evograph/pkg/common"
)

// OrderPair fixes link direction: the earlier event is the source. Equal
// dates are broken lexicographically by ID so a pair can only ever produce
// one link, whichever order the caller passes.
func OrderPair(a, b *common.Event) (from, to *common.Event) {
	if b.Date.Before(a.Date) {
		return b, a
	}
	if a.Date.Equal(b.Date) && b.ID < a.ID {
		return b, a
	}
	return a, b
}

// Composite combines component scores using the configured weights as a raw
// weighted sum, clamped to [0, 1]. Weights are intentionally not normalized;
// the threshold is interpreted against the raw sum.
func (s *Scorer) Composite(c common.ComponentScores) float64 {
	w := s.cfg.Weights
	sum := w.Temporal*c.Temporal +
		w.EntityOverlap*c.EntityOverlap +
		w.Semantic*c.Semantic +
		w.Topic*c.Topic +
		w.Causality*c.Causality +
		w.Emotional*c.Emotional
	return clamp01(sum)
}

// ScorePair runs every component scorer over the pair, aggregates, and
// returns the candidate link together with whether it clears the threshold.
// The pair may be passed in either order; direction is fixed internally.
//
// A failing semantic implementation degrades to a zero semantic component
// and marks the link, rather than failing the pair.
func (s *Scorer) ScorePair(ctx context.Context, a, b *common.Event) (common.EvolutionLink, bool) {
	from, to := OrderPair(a, b)

	components := common.ComponentScores{
		Temporal:      s.Temporal(from, to),
		EntityOverlap: s.EntityOverlap(from, to),
		Topic:         s.Topic(from, to),
		Emotional:     s.Emotional(from, to),
	}

	var explanation string
	components.Causality, explanation = s.Causality(from, to)

	degraded := false
	semantic, err := s.semanticSafe(ctx, from, to)
	if err != nil {
		degraded = true
		semantic = 0
	}
	components.Semantic = semantic

	link := common.EvolutionLink{
		From:           from.ID,
		To:             to.ID,
		CompositeScore: s.Composite(components),
		Components:     components,
		Threshold:      s.cfg.Threshold,
		Explanation:    explanation,
		Degraded:       degraded,
	}
	return link, link.CompositeScore >= s.cfg.Threshold
}

// semanticSafe shields the run from misbehaving similarity providers:
// both returned errors and panics surface as a per-pair error.
func (s *Scorer) semanticSafe(ctx context.Context, a, b *common.Event) (sim float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			sim = 0
			err = &SemanticPanicError{Value: r}
		}
	}()
	return s.Semantic(ctx, a, b)
}

// SemanticPanicError wraps a panic recovered from a TextSimilarity
// implementation so it can be reported like an ordinary error.
type SemanticPanicError struct {
	Value any
}

func (e *SemanticPanicError) Error() string {
	return "text similarity provider panicked"
}
