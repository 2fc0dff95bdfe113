package service

import (
	"context"
	"fmt"
	"time"

	"feed_ranker/internal/domain"
)

// AggregateVideo reduces one video's events inside the trailing
// retention window into fresh VideoStats and writes them back
// last-writer-wins. With no events in the window the counters reset
// to zero and the score falls back to the recency component, so a
// brand-new video is never starved out of ranking.
//
// Running it twice with no new events in between produces identical
// stats, which is what makes a crashed cycle safe to rerun.
func (s *RankingService) AggregateVideo(ctx context.Context, videoID string, now time.Time) (*domain.VideoStats, error) {
	video, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", videoID, err)
	}

	windowStart := now.Add(-s.config.RetentionWindow)
	events, err := s.events.ListForVideoSince(ctx, videoID, windowStart)
	if err != nil {
		return nil, fmt.Errorf("list events for video %s: %w", videoID, err)
	}

	var totalWatch int64
	var completionSum float64
	for _, e := range events {
		totalWatch += int64(e.WatchDurationSeconds)
		completionSum += e.CompletionPct
	}

	viewCount := len(events)
	avgCompletion := 0.0
	if viewCount > 0 {
		avgCompletion = completionSum / float64(viewCount)
	}

	stats := &domain.VideoStats{
		VideoID:               videoID,
		ViewCount:             viewCount,
		TotalWatchTimeSeconds: totalWatch,
		AvgCompletionPct:      avgCompletion,
		EngagementScore:       EngagementScore(viewCount, avgCompletion, video.CreatedAt, now),
		UpdatedAt:             now,
	}

	if err := s.videos.UpsertStats(ctx, stats); err != nil {
		return nil, fmt.Errorf("upsert stats for video %s: %w", videoID, err)
	}

	s.logger.Debug("aggregated video",
		"video_id", videoID,
		"view_count", stats.ViewCount,
		"engagement_score", stats.EngagementScore,
	)

	return stats, nil
}
