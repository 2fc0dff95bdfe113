package domain

import "time"

// Video statuses as written by the moderation pipeline (external to
// this service; we only ever read them).
const (
	StatusApproved = "approved"
)

// Video is the registry row for one content item. This service reads
// id, created_at and status and never writes any of them.
type Video struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	Status    string    `db:"status"`
}

// VideoStats is the per-video engagement summary, 1:1 with a video,
// created lazily on first aggregation and overwritten on every later
// one. When ViewCount is zero AvgCompletionPct is zero and the score
// carries the recency component only.
type VideoStats struct {
	VideoID               string    `db:"video_id"`
	ViewCount             int       `db:"view_count"`
	TotalWatchTimeSeconds int64     `db:"total_watch_time_seconds"`
	AvgCompletionPct      float64   `db:"avg_completion_pct"`
	EngagementScore       float64   `db:"engagement_score"`
	UpdatedAt             time.Time `db:"updated_at"`
}

// VideoScore is the candidate projection the ranker works with: just
// enough of the video and its current stats to filter and order.
type VideoScore struct {
	VideoID         string    `db:"video_id"`
	CreatedAt       time.Time `db:"created_at"`
	Status          string    `db:"status"`
	EngagementScore float64   `db:"engagement_score"`
}
