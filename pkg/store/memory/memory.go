// Package memory provides an in-memory EvolutionStorage. It backs tests and
// single-process deployments that run without PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/store"
)

// Storage is a mutex-guarded in-memory implementation of
// store.EvolutionStorage. All returned values are deep copies.
type Storage struct {
	mu     sync.RWMutex
	events map[string][]common.Event        // corpusID -> events
	links  map[string][]common.EvolutionLink // corpusID -> committed links
	staged map[string][]common.EvolutionLink // runID -> staged links
	runs   map[string]*store.Run             // runID -> run
}

// NewStorage creates an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{
		events: make(map[string][]common.Event),
		links:  make(map[string][]common.EvolutionLink),
		staged: make(map[string][]common.EvolutionLink),
		runs:   make(map[string]*store.Run),
	}
}

var _ store.EvolutionStorage = (*Storage)(nil)

// SaveEvents upserts events into the corpus, keyed by event ID.
func (s *Storage) SaveEvents(ctx context.Context, corpusID string, events []common.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.events[corpusID]
	byID := make(map[string]int, len(existing))
	for i, ev := range existing {
		byID[ev.ID] = i
	}
	for _, ev := range events {
		cp := copyEvent(ev)
		if i, ok := byID[ev.ID]; ok {
			existing[i] = cp
			continue
		}
		byID[ev.ID] = len(existing)
		existing = append(existing, cp)
	}
	common.SortEventsByDate(existing)
	s.events[corpusID] = existing
	return nil
}

// GetEvents returns all events in the corpus sorted by date then ID.
func (s *Storage) GetEvents(ctx context.Context, corpusID string) ([]common.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.events[corpusID]
	out := make([]common.Event, 0, len(events))
	for _, ev := range events {
		out = append(out, copyEvent(ev))
	}
	return out, nil
}

// GetEventsByIDs returns the named events; unknown IDs are an error.
func (s *Storage) GetEventsByIDs(ctx context.Context, corpusID string, ids []string) ([]common.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]common.Event, len(s.events[corpusID]))
	for _, ev := range s.events[corpusID] {
		byID[ev.ID] = ev
	}

	out := make([]common.Event, 0, len(ids))
	for _, id := range ids {
		ev, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("event %q in corpus %q: %w", id, corpusID, store.ErrNotFound)
		}
		out = append(out, copyEvent(ev))
	}
	return out, nil
}

// CountEvents returns the number of events in the corpus.
func (s *Storage) CountEvents(ctx context.Context, corpusID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events[corpusID]), nil
}

// DeleteCorpus removes the corpus with its links, runs, and staged data.
func (s *Storage) DeleteCorpus(ctx context.Context, corpusID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.events, corpusID)
	delete(s.links, corpusID)
	for id, run := range s.runs {
		if run.CorpusID == corpusID {
			delete(s.runs, id)
			delete(s.staged, id)
		}
	}
	return nil
}

// CreateRun registers a new pending run.
func (s *Storage) CreateRun(ctx context.Context, run *store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("run %q already exists", run.ID)
	}
	cp := *run
	if cp.Status == "" {
		cp.Status = store.RunStatusPending
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.runs[run.ID] = &cp
	return nil
}

// GetRun returns the run or store.ErrNotFound.
func (s *Storage) GetRun(ctx context.Context, runID string) (*store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %q: %w", runID, store.ErrNotFound)
	}
	cp := *run
	return &cp, nil
}

// ListRuns returns the corpus runs, newest first.
func (s *Storage) ListRuns(ctx context.Context, corpusID string) ([]*store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*store.Run, 0)
	for _, run := range s.runs {
		if run.CorpusID != corpusID {
			continue
		}
		cp := *run
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// MarkRunRunning transitions the run to running and stamps StartedAt.
func (s *Storage) MarkRunRunning(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %q: %w", runID, store.ErrNotFound)
	}
	now := time.Now().UTC()
	run.Status = store.RunStatusRunning
	run.StartedAt = &now
	return nil
}

// MarkRunFailed transitions the run to failed, records the cause, and
// discards any staged links.
func (s *Storage) MarkRunFailed(ctx context.Context, runID string, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %q: %w", runID, store.ErrNotFound)
	}
	now := time.Now().UTC()
	run.Status = store.RunStatusFailed
	run.Error = cause
	run.FinishedAt = &now
	delete(s.staged, runID)
	return nil
}

// StageLinks appends links to the run's staging area. Staged links are not
// visible to GetLinks until the run commits.
func (s *Storage) StageLinks(ctx context.Context, runID string, links []common.EvolutionLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("run %q: %w", runID, store.ErrNotFound)
	}
	s.staged[runID] = append(s.staged[runID], copyLinks(links)...)
	return nil
}

// CommitRun atomically publishes the run's staged links. Full runs replace
// the corpus link set; incremental runs append to it.
func (s *Storage) CommitRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %q: %w", runID, store.ErrNotFound)
	}

	staged := s.staged[runID]
	if run.Kind == store.RunKindFull {
		s.links[run.CorpusID] = staged
	} else {
		// Append keyed on (from, to): a re-committed batch upserts the
		// same pairs instead of duplicating them.
		existing := s.links[run.CorpusID]
		index := make(map[[2]string]int, len(existing))
		for i, link := range existing {
			index[[2]string{link.From, link.To}] = i
		}
		for _, link := range staged {
			if i, ok := index[[2]string{link.From, link.To}]; ok {
				existing[i] = link
				continue
			}
			existing = append(existing, link)
		}
		s.links[run.CorpusID] = existing
	}
	common.SortLinks(s.links[run.CorpusID])
	delete(s.staged, runID)

	now := time.Now().UTC()
	run.Status = store.RunStatusCompleted
	run.LinkCount = len(staged)
	run.FinishedAt = &now
	return nil
}

// GetLinks returns committed links matching the filter, sorted by source
// then target event ID.
func (s *Storage) GetLinks(ctx context.Context, corpusID string, filter store.LinkFilter) ([]common.EvolutionLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entityIndex := make(map[string]map[string]struct{})
	if filter.Entity != "" {
		for _, ev := range s.events[corpusID] {
			set := make(map[string]struct{}, len(ev.Entities))
			for _, ent := range ev.Entities {
				set[strings.ToLower(ent)] = struct{}{}
			}
			entityIndex[ev.ID] = set
		}
	}

	out := make([]common.EvolutionLink, 0)
	for _, link := range s.links[corpusID] {
		if !matchesFilter(link, filter, entityIndex) {
			continue
		}
		out = append(out, link)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func matchesFilter(link common.EvolutionLink, filter store.LinkFilter, entityIndex map[string]map[string]struct{}) bool {
	if filter.MinScore != nil && link.CompositeScore < *filter.MinScore {
		return false
	}
	if filter.FromID != "" && link.From != filter.FromID {
		return false
	}
	if filter.ToID != "" && link.To != filter.ToID {
		return false
	}
	if filter.Entity != "" {
		want := strings.ToLower(filter.Entity)
		_, inFrom := entityIndex[link.From][want]
		_, inTo := entityIndex[link.To][want]
		if !inFrom && !inTo {
			return false
		}
	}
	return true
}

func copyEvent(ev common.Event) common.Event {
	cp := ev
	if ev.Entities != nil {
		cp.Entities = append([]string(nil), ev.Entities...)
	}
	if ev.Sentiment != nil {
		v := *ev.Sentiment
		cp.Sentiment = &v
	}
	return cp
}

func copyLinks(links []common.EvolutionLink) []common.EvolutionLink {
	return append([]common.EvolutionLink(nil), links...)
}
