package domain

import "errors"

var (
	// ErrVideoNotFound marks events that reference a video missing
	// from the registry. The aggregator skips such videos and keeps
	// going.
	ErrVideoNotFound = errors.New("video not found")

	// ErrRunInProgress is returned when the run lock is already held,
	// e.g. an on-demand run racing the scheduled one.
	ErrRunInProgress = errors.New("ranking run already in progress")
)
