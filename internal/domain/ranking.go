package domain

import "time"

// RankingEntry is one row of a category's published ranking. The set
// for a category is always replaced whole; positions are dense and
// 1-based within the category.
type RankingEntry struct {
	Category     string    `db:"category"`
	VideoID      string    `db:"video_id"`
	RankPosition int       `db:"rank_position"`
	ComputedAt   time.Time `db:"computed_at"`
}

// Category defines one ranking list: its name, its size cap and the
// eligibility filter applied to candidates before ordering. Eligible
// receives the cycle's reference time so recency windows are judged
// against a single clock for the whole run.
type Category struct {
	Name     string
	TopK     int
	Eligible func(candidate VideoScore, now time.Time) bool
}

const (
	CategoryForYou   = "for_you"
	CategoryTrending = "trending"

	// TrendingWindow bounds candidate age for the trending category.
	TrendingWindow = 3 * 24 * time.Hour
)

// ForYou ranks every approved video by engagement score.
func ForYou(topK int) Category {
	return Category{
		Name: CategoryForYou,
		TopK: topK,
		Eligible: func(c VideoScore, _ time.Time) bool {
			return c.Status == StatusApproved
		},
	}
}

// Trending ranks approved videos created within the trailing three
// days. An older video is excluded no matter how high its score.
func Trending(topK int) Category {
	return Category{
		Name: CategoryTrending,
		TopK: topK,
		Eligible: func(c VideoScore, now time.Time) bool {
			return c.Status == StatusApproved && c.CreatedAt.After(now.Add(-TrendingWindow))
		},
	}
}

// Categories returns the ranking lists a cycle publishes, in the
// order they are computed.
func Categories(topK int) []Category {
	return []Category{ForYou(topK), Trending(topK)}
}
