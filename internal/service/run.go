package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"feed_ranker/internal/domain"
)

// Run executes one full ranking cycle: aggregate every video with
// recent engagement, republish each category's ranking, then purge
// events that have aged out of the retention window.
//
// Per-video and per-category failures are logged, counted and
// skipped; only run-level failures (lock contention, candidate
// discovery) abort the cycle. Purging is best-effort and runs last,
// after the stats it would otherwise erase are durable.
func (s *RankingService) Run(ctx context.Context) (*domain.RunStats, error) {
	startTime := time.Now()
	now := startTime.UTC()
	windowStart := now.Add(-s.config.RetentionWindow)

	release, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	defer release()

	stats := &domain.RunStats{
		RankingsWritten: make(map[string]int),
	}

	s.logger.Info("starting ranking run",
		"window_start", windowStart,
		"max_rankings", s.config.MaxRankings,
	)

	// Aggregation scope: only videos with evidence of activity inside
	// the window. Videos untouched this cycle keep the stats a prior
	// run gave them.
	videoIDs, err := s.events.DistinctVideoIDsSince(ctx, windowStart)
	if err != nil {
		return stats, fmt.Errorf("discover videos with recent events: %w", err)
	}

	s.logger.Info("aggregating videos", "count", len(videoIDs))

	var aggregated, failed atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.AggregationWorkers)
	for _, videoID := range videoIDs {
		videoID := videoID
		g.Go(func() error {
			if _, err := s.AggregateVideo(gCtx, videoID, now); err != nil {
				failed.Add(1)
				s.logger.Error("aggregation failed",
					"video_id", videoID,
					"error", err,
				)
				return nil
			}
			aggregated.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	stats.VideosAggregated = int(aggregated.Load())
	stats.AggregationErrors = int(failed.Load())

	candidates, err := s.videos.ListCandidates(ctx)
	if err != nil {
		return stats, fmt.Errorf("list ranking candidates: %w", err)
	}

	for _, cat := range domain.Categories(s.config.MaxRankings) {
		written, err := s.publishRanking(ctx, cat, candidates, now)
		if err != nil {
			s.logger.Error("ranking failed", "category", cat.Name, "error", err)
			continue
		}
		stats.RankingsWritten[cat.Name] = written

		if s.publisher != nil {
			if err := s.publisher.PublishRankingReplaced(ctx, cat.Name, written, now); err != nil {
				s.logger.Error("ranking notification failed", "category", cat.Name, "error", err)
			} else {
				stats.Notified++
			}
		}
	}

	// Purge last: aggregation has already consumed this window, and a
	// purge failure only means the next cycle rereads some events.
	purged, err := s.events.PurgeBefore(ctx, windowStart)
	if err != nil {
		s.logger.Error("event purge failed", "error", err)
	} else {
		stats.EventsPurged = true
		s.logger.Info("purged events", "count", purged)
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("ranking run completed",
		"videos_aggregated", stats.VideosAggregated,
		"aggregation_errors", stats.AggregationErrors,
		"rankings_written", stats.RankingsWritten,
		"events_purged", stats.EventsPurged,
		"duration", stats.Duration,
	)

	return stats, nil
}
