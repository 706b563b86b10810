// Package pgx implements store.EvolutionStorage on PostgreSQL. Event
// embeddings are stored with pgvector so corpora can be searched by
// semantic similarity.
package pgx

import (
	"context"
	"sync"

	"github.com/finvista/evograph/pkg/ai"
	"github.com/finvista/evograph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// EvolutionDBStorage implements the EvolutionStorage interface using
// PostgreSQL. When a model client is configured, saved events are embedded
// and the vectors stored alongside them for similarity search; without one,
// events are stored with a null embedding.
type EvolutionDBStorage struct {
	conn     pgxIConn
	aiClient ai.ModelClient
	dbLock   sync.Mutex
}

var _ store.EvolutionStorage = (*EvolutionDBStorage)(nil)

type EvolutionDBStorageOption func(*EvolutionDBStorage)

// WithModelClient enables event embedding on save and similarity search.
func WithModelClient(client ai.ModelClient) EvolutionDBStorageOption {
	return func(s *EvolutionDBStorage) {
		s.aiClient = client
	}
}

// NewEvolutionDBStorageWithConnection creates an EvolutionDBStorage using an
// existing database connection or pool.
func NewEvolutionDBStorageWithConnection(
	ctx context.Context,
	conn pgxIConn,
	opts ...EvolutionDBStorageOption,
) (*EvolutionDBStorage, error) {
	s := &EvolutionDBStorage{
		conn:   conn,
		dbLock: sync.Mutex{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}
