package engine

import (
	"context"

	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/scoring"
)

// ScoreCandidate evaluates one candidate pair under the pruning semantics.
// The returned link always carries a complete component record; components
// a gate skipped are recorded as 0, never left undefined, so rejected
// candidates stay auditable.
//
// Two gates run before the expensive scorers:
//
//  1. Temporal cutoff: a day gap beyond the configured window defines the
//     pair as unrelated. Everything is recorded as 0 and the composite is 0.
//  2. Overlap short-circuit: zero entity overlap combined with zero topic
//     relevance rejects the pair without invoking the semantic or causal
//     scorers; their scores are recorded as 0 and the composite is 0.
//
// Both gates are part of the scoring semantics, not just an optimization:
// a brute-force evaluation of every pair applies the identical rules, which
// is what makes sorted-scan pruning result-preserving.
func (e *Engine) ScoreCandidate(ctx context.Context, a, b *common.Event) (common.EvolutionLink, bool) {
	from, to := scoring.OrderPair(a, b)
	cfg := e.scorer.Config()

	temporal := e.scorer.Temporal(from, to)
	if temporal == 0 {
		// Outside the window. Temporal 0 is the correct score, the rest
		// were never evaluated.
		return common.EvolutionLink{
			From:      from.ID,
			To:        to.ID,
			Threshold: cfg.Threshold,
		}, false
	}

	overlap := e.scorer.EntityOverlap(from, to)
	topic := e.scorer.Topic(from, to)
	if overlap == 0 && topic == 0 {
		return common.EvolutionLink{
			From: from.ID,
			To:   to.ID,
			Components: common.ComponentScores{
				Temporal:  temporal,
				Emotional: e.scorer.Emotional(from, to),
			},
			Threshold: cfg.Threshold,
		}, false
	}

	return e.scorer.ScorePair(ctx, from, to)
}
