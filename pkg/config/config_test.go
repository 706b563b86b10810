package config

import (
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	want := Weights{
		Temporal:      0.25,
		EntityOverlap: 0.20,
		Semantic:      0.20,
		Topic:         0.10,
		Causality:     0.15,
		Emotional:     0.10,
	}
	if cfg.Weights != want {
		t.Fatalf("weights = %+v, want %+v", cfg.Weights, want)
	}
	if cfg.Threshold != 0.2 {
		t.Fatalf("threshold = %v, want 0.2", cfg.Threshold)
	}
	if cfg.TemporalWindowDays != 90 {
		t.Fatalf("temporal window = %d, want 90", cfg.TemporalWindowDays)
	}
	if cfg.PartialTopicScore != 0.3 {
		t.Fatalf("partial topic score = %v, want 0.3", cfg.PartialTopicScore)
	}
	if len(cfg.CausalPatterns) == 0 {
		t.Fatal("default causal pattern table is empty")
	}
	if cfg.CausalPatterns[TypePair{From: "rumor", To: "bankruptcy"}] != 0.8 {
		t.Fatalf("rumor→bankruptcy strength = %v, want 0.8",
			cfg.CausalPatterns[TypePair{From: "rumor", To: "bankruptcy"}])
	}
	if len(cfg.TopicBuckets) == 0 || len(cfg.RelatedTopics) == 0 || len(cfg.SentimentPriors) == 0 {
		t.Fatal("default topic and sentiment tables must be populated")
	}
}

func TestApplyDefaults_PartialConfig(t *testing.T) {
	cfg := ScoringConfig{
		Threshold:          0.4,
		TemporalWindowDays: 30,
	}
	cfg.ApplyDefaults()

	if cfg.Threshold != 0.4 {
		t.Fatalf("explicit threshold overwritten: %v", cfg.Threshold)
	}
	if cfg.TemporalWindowDays != 30 {
		t.Fatalf("explicit window overwritten: %d", cfg.TemporalWindowDays)
	}
	if cfg.Weights.Temporal != 0.25 {
		t.Fatalf("unset weights not defaulted: %+v", cfg.Weights)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("partial config with defaults must validate: %v", err)
	}
}

func TestApplyDefaults_FoldsPatternList(t *testing.T) {
	cfg := ScoringConfig{
		CausalPatternList: []CausalPattern{
			{FromType: "merger", ToType: "layoffs", Strength: 0.5},
		},
	}
	cfg.ApplyDefaults()

	if got := cfg.CausalPatterns[TypePair{From: "merger", To: "layoffs"}]; got != 0.5 {
		t.Fatalf("pattern list not folded into lookup map: %v", got)
	}
	if len(cfg.CausalPatterns) != 1 {
		t.Fatalf("explicit pattern list must replace defaults, got %d entries", len(cfg.CausalPatterns))
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScoringConfig)
		wantErr string
	}{
		{
			"negative weight",
			func(c *ScoringConfig) { c.Weights.Semantic = -0.1 },
			"weight semantic",
		},
		{
			"negative threshold",
			func(c *ScoringConfig) { c.Threshold = -0.01 },
			"threshold",
		},
		{
			"zero window",
			func(c *ScoringConfig) { c.TemporalWindowDays = 0 },
			"temporal window",
		},
		{
			"negative window",
			func(c *ScoringConfig) { c.TemporalWindowDays = -5 },
			"temporal window",
		},
		{
			"partial topic score above one",
			func(c *ScoringConfig) { c.PartialTopicScore = 1.5 },
			"partial topic score",
		},
		{
			"partial topic score negative",
			func(c *ScoringConfig) { c.PartialTopicScore = -0.3 },
			"partial topic score",
		},
		{
			"causal strength out of range",
			func(c *ScoringConfig) {
				c.CausalPatterns[TypePair{From: "rumor", To: "default"}] = 1.2
			},
			"causal strength",
		},
		{
			"sentiment prior out of range",
			func(c *ScoringConfig) { c.SentimentPriors["merger"] = -1.5 },
			"sentiment prior",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
