package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"feed_ranker/internal/domain"
)

// EventStore is the read/purge view over the append-only engagement
// event log. This service never inserts events; ingestion does.
type EventStore struct {
	db *sqlx.DB
}

func NewEventStore(db *sqlx.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) ListForVideoSince(ctx context.Context, videoID string, windowStart time.Time) ([]domain.EngagementEvent, error) {
	query := `
		SELECT video_id, occurred_at, watch_duration_seconds, completion_pct
		FROM engagement_events
		WHERE video_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at`

	var events []domain.EngagementEvent
	err := sqlx.SelectContext(ctx, executor(ctx, s.db), &events, query, videoID, windowStart)
	return events, err
}

func (s *EventStore) DistinctVideoIDsSince(ctx context.Context, windowStart time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT video_id
		FROM engagement_events
		WHERE occurred_at >= $1`

	var ids []string
	err := sqlx.SelectContext(ctx, executor(ctx, s.db), &ids, query, windowStart)
	return ids, err
}

// PurgeBefore deletes events that have aged out of the retention
// window. Rerunning with the same or an earlier cutoff is a no-op.
func (s *EventStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := executor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM engagement_events WHERE occurred_at < $1",
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
