// Package store defines the persistence boundary for event corpora,
// computation runs, and materialized evolution links.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/finvista/evograph/pkg/common"
)

// Run lifecycle states.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run kinds. A full run recomputes every link in the corpus and replaces
// the materialized set on commit; an incremental run appends links for a
// batch of newly ingested events.
const (
	RunKindFull        = "full"
	RunKindIncremental = "incremental"
)

// ErrNotFound is returned when a requested run or corpus does not exist.
var ErrNotFound = errors.New("store: not found")

// Run records one link computation over a corpus.
type Run struct {
	ID         string     `json:"id"`
	CorpusID   string     `json:"corpus_id"`
	Kind       string     `json:"kind"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	LinkCount  int        `json:"link_count"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// LinkFilter narrows a link query. Zero values mean no filtering; a Limit
// of 0 means no limit.
type LinkFilter struct {
	MinScore *float64
	Entity   string
	FromID   string
	ToID     string
	Limit    int
}

// EvolutionStorage persists event corpora and their computed evolution
// links. Links produced by a run are staged first and only become visible
// to queries when the run commits, so readers never observe a half-written
// link set.
type EvolutionStorage interface {
	SaveEvents(ctx context.Context, corpusID string, events []common.Event) error
	GetEvents(ctx context.Context, corpusID string) ([]common.Event, error)
	GetEventsByIDs(ctx context.Context, corpusID string, ids []string) ([]common.Event, error)
	CountEvents(ctx context.Context, corpusID string) (int, error)
	DeleteCorpus(ctx context.Context, corpusID string) error

	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, corpusID string) ([]*Run, error)
	MarkRunRunning(ctx context.Context, runID string) error
	MarkRunFailed(ctx context.Context, runID string, cause string) error

	StageLinks(ctx context.Context, runID string, links []common.EvolutionLink) error
	CommitRun(ctx context.Context, runID string) error

	GetLinks(ctx context.Context, corpusID string, filter LinkFilter) ([]common.EvolutionLink, error)
}
