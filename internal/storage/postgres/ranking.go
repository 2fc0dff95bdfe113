package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"feed_ranker/internal/domain"
)

// RankingStore owns the published feed_rankings rows. Replacement is
// always whole-category; no path mutates individual rows.
type RankingStore struct {
	db *sqlx.DB
}

func NewRankingStore(db *sqlx.DB) *RankingStore {
	return &RankingStore{db: db}
}

// Replace deletes a category's current set and inserts the new one.
// Callers run it inside a transaction so readers see either the old
// generation or the new one, never a mix.
func (s *RankingStore) Replace(ctx context.Context, category string, entries []domain.RankingEntry) error {
	ex := executor(ctx, s.db)

	_, err := ex.ExecContext(ctx,
		"DELETE FROM feed_rankings WHERE category = $1",
		category,
	)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO feed_rankings (category, video_id, rank_position, computed_at) VALUES ")
	args := make([]interface{}, 0, len(entries)*4)

	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 4
		sb.WriteString("($")
		sb.WriteString(strconv.Itoa(base + 1))
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(base + 2))
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(base + 3))
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(base + 4))
		sb.WriteString(")")
		args = append(args, e.Category, e.VideoID, e.RankPosition, e.ComputedAt)
	}

	_, err = ex.ExecContext(ctx, sb.String(), args...)
	return err
}

// ListByCategory returns the published ranking ordered by position,
// the way the feed reader consumes it.
func (s *RankingStore) ListByCategory(ctx context.Context, category string) ([]domain.RankingEntry, error) {
	query := `
		SELECT category, video_id, rank_position, computed_at
		FROM feed_rankings
		WHERE category = $1
		ORDER BY rank_position`

	var entries []domain.RankingEntry
	err := sqlx.SelectContext(ctx, executor(ctx, s.db), &entries, query, category)
	return entries, err
}
