// Package loader is the corpus-loading boundary of the engine: it parses
// event records from JSON or CSV payloads and enforces the input contract
// before anything reaches the scoring pipeline. Malformed events (missing
// id or date) fail the whole load; missing optional fields degrade to
// documented defaults.
package loader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/finvista/evograph/internal/util"
	"github.com/finvista/evograph/pkg/common"
)

// ErrMalformedEvent marks events that violate the input contract. Errors
// returned by the parse functions wrap it, so callers can branch with
// errors.Is.
var ErrMalformedEvent = errors.New("malformed event")

// dateFormats are accepted event date encodings, tried in order.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
}

type eventRecord struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Type        string   `json:"type"`
	Headline    string   `json:"headline"`
	Description string   `json:"description"`
	Entities    []string `json:"entities"`
	Severity    string   `json:"severity"`
	Sentiment   *float64 `json:"sentiment"`
}

// ParseEventsJSON decodes a JSON array of event records into a validated
// corpus.
func ParseEventsJSON(data []byte) ([]common.Event, error) {
	var records []eventRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode events json: %w", err)
	}

	events := make([]common.Event, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		ev, err := buildEvent(rec, i, seen)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// csvHeader is the expected column order for CSV corpora. The entities
// column holds identifiers separated by semicolons.
var csvHeader = []string{"id", "date", "type", "headline", "description", "entities", "severity", "sentiment"}

// ParseEventsCSV decodes a CSV corpus with the documented header row.
func ParseEventsCSV(data []byte) ([]common.Event, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = len(csvHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, col := range csvHeader {
		if i >= len(header) || !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return nil, fmt.Errorf("%w: csv header must be %s", ErrMalformedEvent, strings.Join(csvHeader, ","))
		}
	}

	var events []common.Event
	seen := make(map[string]struct{})
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line+1, err)
		}
		line++

		rec := eventRecord{
			ID:          strings.TrimSpace(row[0]),
			Date:        strings.TrimSpace(row[1]),
			Type:        strings.TrimSpace(row[2]),
			Headline:    row[3],
			Description: row[4],
			Severity:    strings.TrimSpace(row[6]),
		}
		if ents := strings.TrimSpace(row[5]); ents != "" {
			for _, e := range strings.Split(ents, ";") {
				if e = strings.TrimSpace(e); e != "" {
					rec.Entities = append(rec.Entities, e)
				}
			}
		}
		if sent := strings.TrimSpace(row[7]); sent != "" {
			v, err := strconv.ParseFloat(sent, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d has invalid sentiment %q", ErrMalformedEvent, line, sent)
			}
			rec.Sentiment = &v
		}

		ev, err := buildEvent(rec, line-2, seen)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func buildEvent(rec eventRecord, index int, seen map[string]struct{}) (common.Event, error) {
	if rec.ID == "" {
		return common.Event{}, fmt.Errorf("%w: record %d has no id", ErrMalformedEvent, index)
	}
	if _, dup := seen[rec.ID]; dup {
		return common.Event{}, fmt.Errorf("%w: duplicate id %q", ErrMalformedEvent, rec.ID)
	}
	seen[rec.ID] = struct{}{}

	if rec.Date == "" {
		return common.Event{}, fmt.Errorf("%w: event %q has no date", ErrMalformedEvent, rec.ID)
	}
	date, err := parseDate(rec.Date)
	if err != nil {
		return common.Event{}, fmt.Errorf("%w: event %q has invalid date %q", ErrMalformedEvent, rec.ID, rec.Date)
	}

	severity := common.Severity(strings.ToLower(rec.Severity))
	if !severity.Valid() {
		// Unknown ordinals degrade to unspecified rather than failing.
		severity = common.SeverityNone
	}

	var sentiment *float64
	if rec.Sentiment != nil {
		if *rec.Sentiment < -1 || *rec.Sentiment > 1 {
			return common.Event{}, fmt.Errorf("%w: event %q sentiment %v outside [-1,1]", ErrMalformedEvent, rec.ID, *rec.Sentiment)
		}
		v := *rec.Sentiment
		sentiment = &v
	}

	return common.Event{
		ID:          rec.ID,
		Date:        date,
		Type:        strings.ToLower(strings.TrimSpace(rec.Type)),
		Headline:    util.CollapseWhitespace(rec.Headline),
		Description: util.CollapseWhitespace(rec.Description),
		Entities:    rec.Entities,
		Severity:    severity,
		Sentiment:   sentiment,
	}, nil
}

func parseDate(value string) (time.Time, error) {
	for _, format := range dateFormats {
		if date, err := time.Parse(format, value); err == nil {
			return date.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
