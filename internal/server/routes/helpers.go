package routes

import (
	"context"

	"github.com/finvista/evograph/internal/server/middleware"
	pgxstore "github.com/finvista/evograph/pkg/store/pgx"
)

// newStorage builds the corpus store from the request's app context. The
// model client is attached so saved events are embedded for similarity
// search when an adapter is configured.
func newStorage(ctx context.Context, ac *middleware.AppContext) (*pgxstore.EvolutionDBStorage, error) {
	opts := []pgxstore.EvolutionDBStorageOption{}
	if ac.App.AiClient != nil {
		opts = append(opts, pgxstore.WithModelClient(ac.App.AiClient))
	}
	return pgxstore.NewEvolutionDBStorageWithConnection(ctx, ac.App.DBConn, opts...)
}
