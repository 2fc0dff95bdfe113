package service

import (
	"log/slog"

	"feed_ranker/internal/config"
)

// RankingService runs the aggregate → rank → purge cycle. It owns no
// state of its own; everything durable lives behind the store
// interfaces, which keeps any cycle safe to re-run against
// overlapping data.
type RankingService struct {
	events    EventStore
	videos    VideoStore
	rankings  RankingStore
	lock      RunLocker
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	config    config.RankingConfig
}

func NewRankingService(
	events EventStore,
	videos VideoStore,
	rankings RankingStore,
	lock RunLocker,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.RankingConfig,
) *RankingService {
	return &RankingService{
		events:    events,
		videos:    videos,
		rankings:  rankings,
		lock:      lock,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("job", "feed_ranking"),
		config:    cfg,
	}
}
