// Package config defines the scoring configuration for evolution link
// computation. Every field has a usable default so callers can supply a
// partial configuration, or none at all.
package config

import (
	"fmt"
)

// Weights holds the non-negative weight of each component score in the
// composite. Weights are applied as a raw weighted sum; they are not
// normalized, so the meaning of the threshold depends on the weights chosen.
type Weights struct {
	Temporal      float64 `json:"temporal" validate:"gte=0"`
	EntityOverlap float64 `json:"entity_overlap" validate:"gte=0"`
	Semantic      float64 `json:"semantic" validate:"gte=0"`
	Topic         float64 `json:"topic" validate:"gte=0"`
	Causality     float64 `json:"causality" validate:"gte=0"`
	Emotional     float64 `json:"emotional" validate:"gte=0"`
}

// TypePair keys the causal pattern table with the two event types in
// temporal order.
type TypePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ScoringConfig carries every tunable of a link computation run. A zero
// value is not usable directly; call Default or ApplyDefaults first.
//
// The default weights and threshold were calibrated on a small corpus and
// should be treated as starting points, not ground truth.
type ScoringConfig struct {
	Weights   Weights `json:"weights"`
	Threshold float64 `json:"threshold" validate:"gte=0"`

	// TemporalWindowDays is the cutoff beyond which the temporal score is
	// exactly zero and a sorted scan can stop early.
	TemporalWindowDays int `json:"temporal_window_days" validate:"gt=0"`

	// CausalPatterns maps ordered type pairs to causal strength in [0, 1].
	// Unknown pairs score zero.
	CausalPatterns map[TypePair]float64 `json:"-"`

	// CausalPatternList is the JSON-facing form of CausalPatterns; map keys
	// in Go cannot be structs in JSON, so configuration payloads use a list.
	CausalPatternList []CausalPattern `json:"causal_patterns,omitempty" validate:"dive"`

	// TopicBuckets maps an event type to one or more coarse topic
	// categories. Types absent from the map land in the synthetic
	// "unknown" category.
	TopicBuckets map[string][]string `json:"topic_buckets,omitempty"`

	// RelatedTopics lists unordered category pairs considered adjacent;
	// events whose categories are adjacent but not shared receive
	// PartialTopicScore.
	RelatedTopics [][2]string `json:"related_topics,omitempty"`

	// PartialTopicScore is awarded for adjacent (not shared) topic
	// categories, and for two events that are both of unknown type.
	PartialTopicScore float64 `json:"partial_topic_score" validate:"gte=0,lte=1"`

	// SentimentPriors supplies a default sentiment per event type for
	// events without an explicit one. Types absent here default to 0.
	SentimentPriors map[string]float64 `json:"sentiment_priors,omitempty"`
}

// CausalPattern is one row of the causal pattern table in configuration
// payloads. Explanation is advisory text attached to links the pattern
// matches; it never affects scoring.
type CausalPattern struct {
	FromType    string  `json:"from_type" validate:"required"`
	ToType      string  `json:"to_type" validate:"required"`
	Strength    float64 `json:"strength" validate:"gte=0,lte=1"`
	Explanation string  `json:"explanation,omitempty"`
}

// Default returns the full default configuration.
func Default() ScoringConfig {
	cfg := ScoringConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset field with its documented default and
// folds CausalPatternList into the CausalPatterns lookup map.
func (c *ScoringConfig) ApplyDefaults() {
	zero := Weights{}
	if c.Weights == zero {
		c.Weights = Weights{
			Temporal:      0.25,
			EntityOverlap: 0.20,
			Semantic:      0.20,
			Topic:         0.10,
			Causality:     0.15,
			Emotional:     0.10,
		}
	}
	if c.Threshold == 0 {
		c.Threshold = 0.2
	}
	if c.TemporalWindowDays == 0 {
		c.TemporalWindowDays = 90
	}
	if c.PartialTopicScore == 0 {
		c.PartialTopicScore = 0.3
	}
	if c.TopicBuckets == nil {
		c.TopicBuckets = DefaultTopicBuckets()
	}
	if c.RelatedTopics == nil {
		c.RelatedTopics = DefaultRelatedTopics()
	}
	if c.SentimentPriors == nil {
		c.SentimentPriors = DefaultSentimentPriors()
	}
	if c.CausalPatterns == nil {
		c.CausalPatterns = make(map[TypePair]float64)
		if c.CausalPatternList == nil {
			c.CausalPatternList = DefaultCausalPatterns()
		}
	}
	for _, p := range c.CausalPatternList {
		c.CausalPatterns[TypePair{From: p.FromType, To: p.ToType}] = p.Strength
	}
}

// Validate checks bounds the validator tags cannot express across fields.
func (c *ScoringConfig) Validate() error {
	w := c.Weights
	for name, v := range map[string]float64{
		"temporal":       w.Temporal,
		"entity_overlap": w.EntityOverlap,
		"semantic":       w.Semantic,
		"topic":          w.Topic,
		"causality":      w.Causality,
		"emotional":      w.Emotional,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must be non-negative, got %v", name, v)
		}
	}
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %v", c.Threshold)
	}
	if c.TemporalWindowDays <= 0 {
		return fmt.Errorf("temporal window must be positive, got %d", c.TemporalWindowDays)
	}
	if c.PartialTopicScore < 0 || c.PartialTopicScore > 1 {
		return fmt.Errorf("partial topic score must be in [0,1], got %v", c.PartialTopicScore)
	}
	for pair, strength := range c.CausalPatterns {
		if strength < 0 || strength > 1 {
			return fmt.Errorf("causal strength for (%s,%s) must be in [0,1], got %v", pair.From, pair.To, strength)
		}
	}
	for typ, prior := range c.SentimentPriors {
		if prior < -1 || prior > 1 {
			return fmt.Errorf("sentiment prior for %q must be in [-1,1], got %v", typ, prior)
		}
	}
	return nil
}
