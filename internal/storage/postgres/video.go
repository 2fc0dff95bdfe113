package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"feed_ranker/internal/domain"
)

// VideoStore reads the video registry and owns the per-video stats
// rows. Registry fields (created_at, status) are written elsewhere;
// stats are written only here, once per video per cycle.
type VideoStore struct {
	db *sqlx.DB
}

func NewVideoStore(db *sqlx.DB) *VideoStore {
	return &VideoStore{db: db}
}

func (s *VideoStore) Get(ctx context.Context, videoID string) (*domain.Video, error) {
	var video domain.Video
	query := `SELECT id, created_at, status FROM videos WHERE id = $1`

	err := sqlx.GetContext(ctx, executor(ctx, s.db), &video, query, videoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// UpsertStats writes a video's summary last-writer-wins. No guard on
// updated_at: only one aggregation touches a video per cycle.
func (s *VideoStore) UpsertStats(ctx context.Context, stats *domain.VideoStats) error {
	query := `
		INSERT INTO video_stats (
			video_id, view_count, total_watch_time_seconds,
			avg_completion_pct, engagement_score, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (video_id) DO UPDATE SET
			view_count = EXCLUDED.view_count,
			total_watch_time_seconds = EXCLUDED.total_watch_time_seconds,
			avg_completion_pct = EXCLUDED.avg_completion_pct,
			engagement_score = EXCLUDED.engagement_score,
			updated_at = EXCLUDED.updated_at`

	_, err := executor(ctx, s.db).ExecContext(ctx, query,
		stats.VideoID,
		stats.ViewCount,
		stats.TotalWatchTimeSeconds,
		stats.AvgCompletionPct,
		stats.EngagementScore,
		stats.UpdatedAt,
	)
	return err
}

// ListCandidates returns every approved video with its current score.
// Videos never aggregated rank with a zero score rather than being
// invisible.
func (s *VideoStore) ListCandidates(ctx context.Context) ([]domain.VideoScore, error) {
	query := `
		SELECT v.id AS video_id, v.created_at, v.status,
		       COALESCE(st.engagement_score, 0) AS engagement_score
		FROM videos v
		LEFT JOIN video_stats st ON st.video_id = v.id
		WHERE v.status = $1`

	var candidates []domain.VideoScore
	err := sqlx.SelectContext(ctx, executor(ctx, s.db), &candidates, query, domain.StatusApproved)
	return candidates, err
}
