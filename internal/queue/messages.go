package queue

// QueueRunMsg asks the worker to compute links for a corpus. Kind "full"
// recomputes everything; "incremental" scores only the pairs involving
// NewEventIDs against the corpus.
type QueueRunMsg struct {
	Message       string   `json:"message"`
	RunID         string   `json:"run_id"`
	CorpusID      string   `json:"corpus_id"`
	Kind          string   `json:"kind"`
	NewEventIDs   []string `json:"new_event_ids,omitempty"`
	CorrelationID string   `json:"correlation_id"`
}

// QueueDeleteMsg asks the worker to remove a corpus with all of its runs
// and links.
type QueueDeleteMsg struct {
	Message       string `json:"message"`
	CorpusID      string `json:"corpus_id"`
	CorrelationID string `json:"correlation_id"`
}

// RunEventMsg is broadcast on the pubsub exchange when a run changes state.
type RunEventMsg struct {
	RunID     string `json:"run_id"`
	CorpusID  string `json:"corpus_id"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	LinkCount int    `json:"link_count,omitempty"`
	Error     string `json:"error,omitempty"`
}
