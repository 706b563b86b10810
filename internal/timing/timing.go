// Package timing records how long runs take per scored pair so the API can
// give callers a rough completion estimate for new runs.
package timing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordRunDuration stores one completed run's size and wall time.
func RecordRunDuration(
	ctx context.Context,
	conn *pgxpool.Pool,
	kind string,
	eventCount int,
	durationMs int64,
) error {
	_, err := conn.Exec(ctx, `
		INSERT INTO run_stats (kind, event_count, duration_ms)
		VALUES ($1, $2, $3)
	`, kind, eventCount, durationMs)
	return err
}

// PredictRunDuration estimates the wall time for a run over eventCount
// events, scaling the recent average per-event cost. Returns 0 when there
// is no history yet.
func PredictRunDuration(
	ctx context.Context,
	conn *pgxpool.Pool,
	kind string,
	eventCount int,
) (int64, error) {
	var perEventMs float64
	err := conn.QueryRow(ctx, `
		SELECT COALESCE(AVG(duration_ms::float8 / GREATEST(event_count, 1)), 0)
		FROM (
			SELECT duration_ms, event_count
			FROM run_stats
			WHERE kind = $1
			ORDER BY id DESC
			LIMIT 20
		) recent
	`, kind).Scan(&perEventMs)
	if err != nil {
		return 0, err
	}
	return int64(perEventMs * float64(eventCount)), nil
}
