package service

import "time"

// Engagement score weights. Completion quality dominates on purpose;
// raw popularity saturates so a view flood cannot drown it out.
const (
	completionWeight = 0.6
	viewWeight       = 0.2
	recencyWeight    = 0.2

	// viewSaturation is the per-window view count at which the view
	// component maxes out.
	viewSaturation = 1000

	// recencyDecayHours is the age at which the recency component
	// reaches zero: 7 days, counted from the video's own creation
	// time, not from any event.
	recencyDecayHours = 168
)

// CompletionScore is the completion component of the engagement
// score, weighted and clamped.
func CompletionScore(avgCompletionPct float64) float64 {
	return clamp01(avgCompletionPct) * completionWeight
}

// ViewScore is the view-volume component; it saturates at
// viewSaturation views per window.
func ViewScore(viewCount int) float64 {
	if viewCount <= 0 {
		return 0
	}
	frac := float64(viewCount) / viewSaturation
	return clamp01(frac) * viewWeight
}

// RecencyScore decays linearly from the video's creation time to zero
// at recencyDecayHours.
func RecencyScore(createdAt, now time.Time) float64 {
	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return clamp01(1-ageHours/recencyDecayHours) * recencyWeight
}

// EngagementScore combines the three components. The result is always
// in [0, 1]; with zero views it reduces to the recency component.
func EngagementScore(viewCount int, avgCompletionPct float64, createdAt, now time.Time) float64 {
	if viewCount <= 0 {
		return RecencyScore(createdAt, now)
	}
	return CompletionScore(avgCompletionPct) + ViewScore(viewCount) + RecencyScore(createdAt, now)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
