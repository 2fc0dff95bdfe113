package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"feed_ranker/internal/domain"
)

type EventStore interface {
	ListForVideoSince(ctx context.Context, videoID string, windowStart time.Time) ([]domain.EngagementEvent, error)
	DistinctVideoIDsSince(ctx context.Context, windowStart time.Time) ([]string, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type VideoStore interface {
	Get(ctx context.Context, videoID string) (*domain.Video, error)
	UpsertStats(ctx context.Context, stats *domain.VideoStats) error
	ListCandidates(ctx context.Context) ([]domain.VideoScore, error)
}

type RankingStore interface {
	Replace(ctx context.Context, category string, entries []domain.RankingEntry) error
}

type RunLocker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	PublishRankingReplaced(ctx context.Context, category string, entries int, computedAt time.Time) error
	Close() error
}
