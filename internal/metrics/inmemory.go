package metrics

import (
	"sync"
	"time"
)

// InMemoryRecorder collects counts in memory. Intended for tests.
type InMemoryRecorder struct {
	mu             sync.Mutex
	Redirects      map[string]int64
	LinksCreated   int64
	LinksDeleted   int64
	ClicksRecorded map[string]int64
}

// NewInMemory returns an empty in-memory Recorder.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		Redirects:      map[string]int64{},
		ClicksRecorded: map[string]int64{},
	}
}

func (m *InMemoryRecorder) IncRedirect(device string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Redirects[device]++
}

func (m *InMemoryRecorder) ObserveRedirectDuration(duration time.Duration) {}

func (m *InMemoryRecorder) IncLinkCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinksCreated++
}

func (m *InMemoryRecorder) IncLinkDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinksDeleted++
}

func (m *InMemoryRecorder) IncClickRecorded(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClicksRecorded[status]++
}

func (m *InMemoryRecorder) ObserveFanoutDuration(duration time.Duration) {}

// Clicks returns the recorded count for a status.
func (m *InMemoryRecorder) Clicks(status string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ClicksRecorded[status]
}
