package config

// DefaultTopicBuckets maps the event types seen in financial news feeds to
// coarse topic categories. Callers with richer taxonomies override this
// wholesale through ScoringConfig.TopicBuckets.
func DefaultTopicBuckets() map[string][]string {
	return map[string][]string{
		"bankruptcy":         {"credit", "liquidity"},
		"credit_downgrade":   {"credit"},
		"credit_upgrade":     {"credit"},
		"default":            {"credit", "liquidity"},
		"debt_restructuring": {"credit", "liquidity"},
		"merger_acquisition": {"governance", "market"},
		"divestiture":        {"governance", "market"},
		"leadership_change":  {"governance"},
		"accounting_fraud":   {"governance", "credit"},
		"regulatory_action":  {"governance"},
		"lawsuit":            {"governance"},
		"earnings_miss":      {"market"},
		"earnings_beat":      {"market"},
		"profit_warning":     {"market", "credit"},
		"stock_crash":        {"market"},
		"rumor":              {"market"},
		"layoffs":            {"market", "liquidity"},
		"capital_raise":      {"liquidity"},
		"dividend_cut":       {"liquidity", "market"},
		"liquidity_crisis":   {"liquidity", "credit"},
	}
}

// DefaultRelatedTopics lists unordered category pairs that are close enough
// to earn the partial topic score when not directly shared.
func DefaultRelatedTopics() [][2]string {
	return [][2]string{
		{"credit", "liquidity"},
		{"market", "liquidity"},
		{"governance", "market"},
	}
}

// DefaultSentimentPriors supplies a sentiment in [-1, 1] per event type for
// events that carry none of their own. Types not listed default to neutral.
func DefaultSentimentPriors() map[string]float64 {
	return map[string]float64{
		"bankruptcy":         -0.9,
		"default":            -0.9,
		"liquidity_crisis":   -0.8,
		"credit_downgrade":   -0.7,
		"accounting_fraud":   -0.8,
		"stock_crash":        -0.8,
		"profit_warning":     -0.6,
		"debt_restructuring": -0.5,
		"lawsuit":            -0.5,
		"regulatory_action":  -0.4,
		"layoffs":            -0.5,
		"dividend_cut":       -0.4,
		"earnings_miss":      -0.4,
		"rumor":              -0.2,
		"leadership_change":  0.0,
		"divestiture":        0.0,
		"merger_acquisition": 0.2,
		"capital_raise":      0.3,
		"earnings_beat":      0.5,
		"credit_upgrade":     0.6,
	}
}

// DefaultCausalPatterns is the built-in causal strength table. Entries are
// ordered (earlier type, later type). The table is deliberately data, not
// logic, so deployments can replace it without code changes.
func DefaultCausalPatterns() []CausalPattern {
	return []CausalPattern{
		{FromType: "rumor", ToType: "stock_crash", Strength: 0.6, Explanation: "negative rumors frequently precede sell-offs"},
		{FromType: "rumor", ToType: "bankruptcy", Strength: 0.8, Explanation: "insolvency rumors often foreshadow filings"},
		{FromType: "profit_warning", ToType: "credit_downgrade", Strength: 0.7, Explanation: "guidance cuts trigger rating reviews"},
		{FromType: "profit_warning", ToType: "stock_crash", Strength: 0.6},
		{FromType: "earnings_miss", ToType: "credit_downgrade", Strength: 0.5},
		{FromType: "earnings_miss", ToType: "layoffs", Strength: 0.4},
		{FromType: "credit_downgrade", ToType: "liquidity_crisis", Strength: 0.7, Explanation: "downgrades raise funding costs and margin calls"},
		{FromType: "credit_downgrade", ToType: "default", Strength: 0.6},
		{FromType: "credit_downgrade", ToType: "bankruptcy", Strength: 0.6},
		{FromType: "liquidity_crisis", ToType: "default", Strength: 0.8},
		{FromType: "liquidity_crisis", ToType: "bankruptcy", Strength: 0.8},
		{FromType: "liquidity_crisis", ToType: "capital_raise", Strength: 0.6},
		{FromType: "default", ToType: "bankruptcy", Strength: 0.9, Explanation: "missed payments commonly precede filings"},
		{FromType: "accounting_fraud", ToType: "regulatory_action", Strength: 0.8},
		{FromType: "accounting_fraud", ToType: "leadership_change", Strength: 0.6},
		{FromType: "accounting_fraud", ToType: "stock_crash", Strength: 0.7},
		{FromType: "accounting_fraud", ToType: "lawsuit", Strength: 0.7},
		{FromType: "regulatory_action", ToType: "leadership_change", Strength: 0.5},
		{FromType: "lawsuit", ToType: "leadership_change", Strength: 0.4},
		{FromType: "stock_crash", ToType: "layoffs", Strength: 0.5},
		{FromType: "stock_crash", ToType: "merger_acquisition", Strength: 0.4, Explanation: "depressed valuations attract acquirers"},
		{FromType: "bankruptcy", ToType: "merger_acquisition", Strength: 0.5, Explanation: "asset sales out of bankruptcy"},
		{FromType: "dividend_cut", ToType: "stock_crash", Strength: 0.4},
		{FromType: "layoffs", ToType: "leadership_change", Strength: 0.3},
	}
}
