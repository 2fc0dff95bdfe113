//go:build integration

package postgres

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"feed_ranker/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_videos.up.sql"),
			filepath.Join(migrationsPath, "002_create_engagement_events.up.sql"),
			filepath.Join(migrationsPath, "003_create_video_stats.up.sql"),
			filepath.Join(migrationsPath, "004_create_feed_rankings.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM feed_rankings")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM video_stats")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM engagement_events")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM videos")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) insertVideo(createdAt time.Time, status string) string {
	id := uuid.NewString()
	_, err := s.db.ExecContext(s.ctx,
		"INSERT INTO videos (id, created_at, status) VALUES ($1, $2, $3)",
		id, createdAt, status,
	)
	s.Require().NoError(err)
	return id
}

func (s *PostgresIntegrationSuite) insertEvent(videoID string, occurredAt time.Time, watchSeconds int, completion float64) {
	_, err := s.db.ExecContext(s.ctx,
		`INSERT INTO engagement_events (video_id, occurred_at, watch_duration_seconds, completion_pct)
		 VALUES ($1, $2, $3, $4)`,
		videoID, occurredAt, watchSeconds, completion,
	)
	s.Require().NoError(err)
}

func (s *PostgresIntegrationSuite) TestEventStore_ListForVideoSince() {
	store := NewEventStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)
	videoID := s.insertVideo(now, domain.StatusApproved)
	otherID := s.insertVideo(now, domain.StatusApproved)

	s.insertEvent(videoID, now.Add(-time.Hour), 30, 0.9)
	s.insertEvent(videoID, now.Add(-2*time.Hour), 10, 0.4)
	s.insertEvent(videoID, now.Add(-10*24*time.Hour), 99, 1.0) // outside window
	s.insertEvent(otherID, now.Add(-time.Hour), 50, 0.5)       // other video

	events, err := store.ListForVideoSince(s.ctx, videoID, now.Add(-7*24*time.Hour))
	s.NoError(err)
	s.Len(events, 2)
	// Ordered by occurred_at ascending.
	s.Equal(10, events[0].WatchDurationSeconds)
	s.Equal(30, events[1].WatchDurationSeconds)
	for _, e := range events {
		s.Equal(videoID, e.VideoID)
	}
}

func (s *PostgresIntegrationSuite) TestEventStore_DistinctVideoIDsSince() {
	store := NewEventStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)
	activeID := s.insertVideo(now, domain.StatusApproved)
	staleID := s.insertVideo(now, domain.StatusApproved)

	s.insertEvent(activeID, now.Add(-time.Hour), 30, 0.9)
	s.insertEvent(activeID, now.Add(-2*time.Hour), 20, 0.7)
	s.insertEvent(staleID, now.Add(-9*24*time.Hour), 10, 0.3)

	ids, err := store.DistinctVideoIDsSince(s.ctx, now.Add(-7*24*time.Hour))
	s.NoError(err)
	s.Equal([]string{activeID}, ids)
}

func (s *PostgresIntegrationSuite) TestEventStore_PurgeBefore() {
	store := NewEventStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)
	videoID := s.insertVideo(now, domain.StatusApproved)
	cutoff := now.Add(-7 * 24 * time.Hour)

	s.insertEvent(videoID, cutoff.Add(-time.Hour), 10, 0.1)
	s.insertEvent(videoID, cutoff.Add(-time.Minute), 20, 0.2)
	s.insertEvent(videoID, cutoff.Add(time.Minute), 30, 0.3)
	s.insertEvent(videoID, now, 40, 0.4)

	purged, err := store.PurgeBefore(s.ctx, cutoff)
	s.NoError(err)
	s.Equal(int64(2), purged)

	remaining, err := store.ListForVideoSince(s.ctx, videoID, cutoff)
	s.NoError(err)
	s.Len(remaining, 2)

	// Same cutoff again: nothing left to delete.
	purged, err = store.PurgeBefore(s.ctx, cutoff)
	s.NoError(err)
	s.Equal(int64(0), purged)
}

func (s *PostgresIntegrationSuite) TestVideoStore_Get() {
	store := NewVideoStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)
	videoID := s.insertVideo(now, domain.StatusApproved)

	video, err := store.Get(s.ctx, videoID)
	s.NoError(err)
	s.Equal(videoID, video.ID)
	s.Equal(domain.StatusApproved, video.Status)
	s.WithinDuration(now, video.CreatedAt, time.Second)
}

func (s *PostgresIntegrationSuite) TestVideoStore_Get_NotFound() {
	store := NewVideoStore(s.db)

	_, err := store.Get(s.ctx, uuid.NewString())
	s.ErrorIs(err, domain.ErrVideoNotFound)
}

func (s *PostgresIntegrationSuite) TestVideoStore_UpsertStats_InsertThenOverwrite() {
	store := NewVideoStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)
	videoID := s.insertVideo(now, domain.StatusApproved)

	err := store.UpsertStats(s.ctx, &domain.VideoStats{
		VideoID:               videoID,
		ViewCount:             10,
		TotalWatchTimeSeconds: 300,
		AvgCompletionPct:      0.5,
		EngagementScore:       0.4,
		UpdatedAt:             now,
	})
	s.NoError(err)

	// Second write wins unconditionally.
	err = store.UpsertStats(s.ctx, &domain.VideoStats{
		VideoID:               videoID,
		ViewCount:             3,
		TotalWatchTimeSeconds: 90,
		AvgCompletionPct:      0.8,
		EngagementScore:       0.65,
		UpdatedAt:             now.Add(time.Hour),
	})
	s.NoError(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM video_stats WHERE video_id = $1", videoID)
	s.NoError(err)
	s.Equal(1, count)

	var stats domain.VideoStats
	err = s.db.GetContext(s.ctx, &stats,
		`SELECT video_id, view_count, total_watch_time_seconds, avg_completion_pct, engagement_score, updated_at
		 FROM video_stats WHERE video_id = $1`, videoID)
	s.NoError(err)
	s.Equal(3, stats.ViewCount)
	s.Equal(int64(90), stats.TotalWatchTimeSeconds)
	s.InDelta(0.65, stats.EngagementScore, 1e-9)
}

func (s *PostgresIntegrationSuite) TestVideoStore_ListCandidates() {
	store := NewVideoStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	scoredID := s.insertVideo(now.Add(-time.Hour), domain.StatusApproved)
	freshID := s.insertVideo(now, domain.StatusApproved)
	_ = s.insertVideo(now, "pending")

	err := store.UpsertStats(s.ctx, &domain.VideoStats{
		VideoID:         scoredID,
		ViewCount:       5,
		EngagementScore: 0.42,
		UpdatedAt:       now,
	})
	s.Require().NoError(err)

	candidates, err := store.ListCandidates(s.ctx)
	s.NoError(err)
	s.Len(candidates, 2)

	byID := make(map[string]domain.VideoScore)
	for _, c := range candidates {
		byID[c.VideoID] = c
	}
	s.InDelta(0.42, byID[scoredID].EngagementScore, 1e-9)
	// Never aggregated: present with a zero score, not missing.
	s.Equal(0.0, byID[freshID].EngagementScore)
}

func (s *PostgresIntegrationSuite) TestRankingStore_ReplaceAndList() {
	store := NewRankingStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	a := s.insertVideo(now, domain.StatusApproved)
	b := s.insertVideo(now, domain.StatusApproved)

	entries := []domain.RankingEntry{
		{Category: domain.CategoryForYou, VideoID: a, RankPosition: 1, ComputedAt: now},
		{Category: domain.CategoryForYou, VideoID: b, RankPosition: 2, ComputedAt: now},
	}

	err := store.Replace(s.ctx, domain.CategoryForYou, entries)
	s.NoError(err)

	got, err := store.ListByCategory(s.ctx, domain.CategoryForYou)
	s.NoError(err)
	s.Len(got, 2)
	s.Equal(a, got[0].VideoID)
	s.Equal(1, got[0].RankPosition)
	s.Equal(b, got[1].VideoID)
	s.Equal(2, got[1].RankPosition)
}

func (s *PostgresIntegrationSuite) TestRankingStore_ReplaceSwapsWholeSet() {
	store := NewRankingStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	oldID := s.insertVideo(now, domain.StatusApproved)
	newID := s.insertVideo(now, domain.StatusApproved)

	err := store.Replace(s.ctx, domain.CategoryTrending, []domain.RankingEntry{
		{Category: domain.CategoryTrending, VideoID: oldID, RankPosition: 1, ComputedAt: now},
	})
	s.Require().NoError(err)

	err = store.Replace(s.ctx, domain.CategoryTrending, []domain.RankingEntry{
		{Category: domain.CategoryTrending, VideoID: newID, RankPosition: 1, ComputedAt: now.Add(time.Hour)},
	})
	s.NoError(err)

	got, err := store.ListByCategory(s.ctx, domain.CategoryTrending)
	s.NoError(err)
	s.Len(got, 1)
	s.Equal(newID, got[0].VideoID)
}

func (s *PostgresIntegrationSuite) TestRankingStore_ReplaceLeavesOtherCategoriesAlone() {
	store := NewRankingStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	videoID := s.insertVideo(now, domain.StatusApproved)

	err := store.Replace(s.ctx, domain.CategoryForYou, []domain.RankingEntry{
		{Category: domain.CategoryForYou, VideoID: videoID, RankPosition: 1, ComputedAt: now},
	})
	s.Require().NoError(err)

	err = store.Replace(s.ctx, domain.CategoryTrending, nil)
	s.NoError(err)

	got, err := store.ListByCategory(s.ctx, domain.CategoryForYou)
	s.NoError(err)
	s.Len(got, 1)
}

func (s *PostgresIntegrationSuite) TestRankingStore_ReplaceRollsBackInTransaction() {
	store := NewRankingStore(s.db)
	txManager := NewTransactionManager(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	videoID := s.insertVideo(now, domain.StatusApproved)

	err := store.Replace(s.ctx, domain.CategoryForYou, []domain.RankingEntry{
		{Category: domain.CategoryForYou, VideoID: videoID, RankPosition: 1, ComputedAt: now},
	})
	s.Require().NoError(err)

	// A failure after the replace rolls the delete+insert back whole;
	// the previous generation stays published.
	err = txManager.WithTransaction(s.ctx, func(txCtx context.Context) error {
		if err := store.Replace(txCtx, domain.CategoryForYou, nil); err != nil {
			return err
		}
		return errors.New("boom")
	})
	s.Error(err)

	got, err := store.ListByCategory(s.ctx, domain.CategoryForYou)
	s.NoError(err)
	s.Len(got, 1)
	s.Equal(videoID, got[0].VideoID)
}

func (s *PostgresIntegrationSuite) TestRunLock_Exclusive() {
	lock := NewRunLock(s.db)

	release, err := lock.Acquire(s.ctx)
	s.Require().NoError(err)

	_, err = lock.Acquire(s.ctx)
	s.ErrorIs(err, domain.ErrRunInProgress)

	release()

	release2, err := lock.Acquire(s.ctx)
	s.NoError(err)
	release2()
}
