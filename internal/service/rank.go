package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"feed_ranker/internal/domain"
)

// ComputeRanking filters candidates through the category's
// eligibility predicate, orders them by engagement score descending
// with videoID ascending as the tie-break, truncates to the
// category's topK and assigns dense 1-based positions. The tie-break
// makes the ordering a total order, so identical input always yields
// an identical ranking.
func ComputeRanking(cat domain.Category, candidates []domain.VideoScore, now time.Time) []domain.RankingEntry {
	eligible := make([]domain.VideoScore, 0, len(candidates))
	for _, c := range candidates {
		if cat.Eligible(c, now) {
			eligible = append(eligible, c)
		}
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].EngagementScore != eligible[j].EngagementScore {
			return eligible[i].EngagementScore > eligible[j].EngagementScore
		}
		return eligible[i].VideoID < eligible[j].VideoID
	})

	if len(eligible) > cat.TopK {
		eligible = eligible[:cat.TopK]
	}

	entries := make([]domain.RankingEntry, len(eligible))
	for i, c := range eligible {
		entries[i] = domain.RankingEntry{
			Category:     cat.Name,
			VideoID:      c.VideoID,
			RankPosition: i + 1,
			ComputedAt:   now,
		}
	}
	return entries
}

// publishRanking computes and atomically replaces one category's
// published set. Delete and insert share a transaction so a reader
// never sees rows from two different runs mixed together.
func (s *RankingService) publishRanking(ctx context.Context, cat domain.Category, candidates []domain.VideoScore, now time.Time) (int, error) {
	entries := ComputeRanking(cat, candidates, now)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.rankings.Replace(txCtx, cat.Name, entries)
	})
	if err != nil {
		return 0, fmt.Errorf("replace ranking for %s: %w", cat.Name, err)
	}

	s.logger.Info("published ranking",
		"category", cat.Name,
		"entries", len(entries),
	)

	return len(entries), nil
}
