package loader

import (
	"errors"
	"testing"
)

func TestParseEventsJSON(t *testing.T) {
	data := []byte(`[
		{"id": "e1", "date": "2008-09-12", "type": "Rumor", "headline": " Lehman  solvency \n questioned ", "entities": ["LehmanBrothers"]},
		{"id": "e2", "date": "2008-09-15T08:30:00Z", "type": "bankruptcy", "entities": ["LehmanBrothers", "Barclays"], "severity": "critical", "sentiment": -0.9}
	]`)

	events, err := ParseEventsJSON(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != "rumor" {
		t.Fatalf("type should be lowercased, got %q", events[0].Type)
	}
	if events[0].Headline != "Lehman solvency questioned" {
		t.Fatalf("headline whitespace not collapsed: %q", events[0].Headline)
	}
	if events[1].Sentiment == nil || *events[1].Sentiment != -0.9 {
		t.Fatalf("sentiment not parsed: %+v", events[1].Sentiment)
	}
	if events[1].Date.Year() != 2008 || events[1].Date.Month() != 9 {
		t.Fatalf("date not parsed: %v", events[1].Date)
	}
}

func TestParseEventsJSON_FailFast(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing id", `[{"date": "2008-09-12"}]`},
		{"missing date", `[{"id": "e1"}]`},
		{"bad date", `[{"id": "e1", "date": "next tuesday"}]`},
		{"duplicate id", `[{"id": "e1", "date": "2008-09-12"}, {"id": "e1", "date": "2008-09-13"}]`},
		{"sentiment out of range", `[{"id": "e1", "date": "2008-09-12", "sentiment": 2.5}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEventsJSON([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrMalformedEvent) {
				t.Fatalf("expected ErrMalformedEvent, got %v", err)
			}
		})
	}
}

func TestParseEventsJSON_OptionalFieldsDefault(t *testing.T) {
	data := []byte(`[{"id": "e1", "date": "2008-09-12", "severity": "catastrophic"}]`)

	events, err := ParseEventsJSON(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev := events[0]
	if len(ev.Entities) != 0 {
		t.Fatalf("expected empty entity set, got %v", ev.Entities)
	}
	if ev.Severity != "" {
		t.Fatalf("unknown severity should degrade to unspecified, got %q", ev.Severity)
	}
	if ev.Sentiment != nil {
		t.Fatal("expected nil sentiment")
	}
}

func TestParseEventsCSV(t *testing.T) {
	data := []byte(`id,date,type,headline,description,entities,severity,sentiment
e1,2008-09-12,rumor,Lehman solvency questioned,,LehmanBrothers,medium,-0.2
e2,2008-09-15,bankruptcy,Lehman files,,LehmanBrothers;Barclays,critical,
`)

	events, err := ParseEventsCSV(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if len(events[1].Entities) != 2 {
		t.Fatalf("entities not split: %v", events[1].Entities)
	}
	if events[0].Sentiment == nil || *events[0].Sentiment != -0.2 {
		t.Fatalf("sentiment not parsed: %+v", events[0].Sentiment)
	}
	if events[1].Sentiment != nil {
		t.Fatal("empty sentiment must stay nil")
	}
}

func TestParseEventsCSV_BadHeader(t *testing.T) {
	data := []byte("event,when,kind,headline,description,entities,severity,sentiment\n")
	if _, err := ParseEventsCSV(data); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
}
