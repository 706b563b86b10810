package common

import (
	"sort"
	"time"
)

// Event represents a dated, classified financial event extracted from news
// coverage. Events are the immutable inputs of every link computation run;
// the engine never mutates them.
//
// Entities are assumed to be canonical identifiers resolved by the ingestion
// side. The engine performs no alias merging of its own.
type Event struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Headline    string    `json:"headline"`
	Description string    `json:"description"`
	Entities    []string  `json:"entities"`
	Severity    Severity  `json:"severity,omitempty"`
	// Sentiment is in [-1, 1] when set. Events without an explicit value
	// fall back to the configured per-type prior.
	Sentiment *float64 `json:"sentiment,omitempty"`
}

// Severity is an ordinal label describing how serious an event is.
// It is carried through for downstream consumers and does not participate
// in link scoring.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether the severity is one of the known ordinals.
// The empty value is valid and means "unspecified".
func (s Severity) Valid() bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Text returns the free text used for semantic comparison: the headline and
// description joined, whichever of the two is present.
func (e *Event) Text() string {
	switch {
	case e.Headline != "" && e.Description != "":
		return e.Headline + " " + e.Description
	case e.Headline != "":
		return e.Headline
	default:
		return e.Description
	}
}

// DaysBetween returns the absolute difference between the two event dates
// in whole days.
func DaysBetween(a, b *Event) float64 {
	d := a.Date.Sub(b.Date).Hours() / 24
	if d < 0 {
		d = -d
	}
	return d
}

// ComponentScores holds the six individual scores that feed the composite.
// Every field is in [0, 1]; components skipped by pruning are recorded as 0
// rather than left unset so that stored links stay auditable.
type ComponentScores struct {
	Temporal      float64 `json:"temporal"`
	EntityOverlap float64 `json:"entity_overlap"`
	Semantic      float64 `json:"semantic"`
	Topic         float64 `json:"topic"`
	Causality     float64 `json:"causality"`
	Emotional     float64 `json:"emotional"`
}

// EvolutionLink is a directed, scored edge asserting that the From event
// plausibly influenced the To event. From always carries the earlier date;
// equal dates are ordered lexicographically by event ID so the same pair can
// never yield two links.
type EvolutionLink struct {
	From           string          `json:"from"`
	To             string          `json:"to"`
	CompositeScore float64         `json:"composite_score"`
	Components     ComponentScores `json:"components"`
	// Threshold records the acceptance threshold active when the link was
	// produced, for auditability of historical runs.
	Threshold float64 `json:"threshold"`
	// Explanation is advisory text from the causal pattern table or an
	// external reasoning provider. It never affects the score.
	Explanation string `json:"explanation,omitempty"`
	// Degraded marks links whose semantic component failed and was scored
	// as zero instead of aborting the run.
	Degraded bool `json:"degraded,omitempty"`
}

// SortEventsByDate orders events by date ascending, breaking date ties by ID.
// This is the canonical corpus order every computation runs over.
func SortEventsByDate(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].ID < events[j].ID
		}
		return events[i].Date.Before(events[j].Date)
	})
}

// SortLinks orders links by (from, to) for deterministic output listings.
// Link sets are order-insensitive; sorting is only for stable presentation.
func SortLinks(links []EvolutionLink) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].From == links[j].From {
			return links[i].To < links[j].To
		}
		return links[i].From < links[j].From
	})
}
