package domain

import "time"

// RunStats summarizes one ranking cycle. It is the only observable
// outcome of a run besides the logs and the published data itself.
type RunStats struct {
	VideosAggregated  int
	AggregationErrors int
	RankingsWritten   map[string]int
	Notified          int
	EventsPurged      bool
	Duration          time.Duration
}
