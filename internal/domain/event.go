package domain

import "time"

// EngagementEvent is one record of a user watching part of a video.
// Events are appended by the ingestion path and never mutated; the
// retention purge is the only thing that removes them.
type EngagementEvent struct {
	VideoID              string    `db:"video_id"`
	OccurredAt           time.Time `db:"occurred_at"`
	WatchDurationSeconds int       `db:"watch_duration_seconds"`
	CompletionPct        float64   `db:"completion_pct"`
}
