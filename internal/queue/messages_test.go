package queue

import (
	"encoding/json"
	"testing"

	"github.com/finvista/evograph/internal/util"
)

func TestQueueRunMsgRoundTrip(t *testing.T) {
	correlationID, err := util.NewCorrelationID()
	if err != nil {
		t.Fatalf("NewCorrelationID: %v", err)
	}

	msg := QueueRunMsg{
		Message:       "Recovered stale run",
		RunID:         "run_abc123def456",
		CorpusID:      "corpus-1",
		Kind:          "full",
		CorrelationID: correlationID,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded QueueRunMsg
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.RunID != msg.RunID || decoded.CorrelationID != correlationID {
		t.Fatalf("round trip mismatch: got %+v", decoded)
	}
	if decoded.NewEventIDs != nil {
		t.Fatalf("empty event id list should stay nil, got %v", decoded.NewEventIDs)
	}
}
