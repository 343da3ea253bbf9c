// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Redirect metrics
	IncRedirect(device string)
	ObserveRedirectDuration(duration time.Duration)

	// Link management metrics
	IncLinkCreated()
	IncLinkDeleted()

	// Analytics ingest metrics
	IncClickRecorded(status string) // status: "success", "dropped" or "bot"
	ObserveFanoutDuration(duration time.Duration)
}
