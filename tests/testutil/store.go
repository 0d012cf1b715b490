package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/nhle/worktrack/internal/docstore"
)

// NewTestStore creates an in-memory SQLite document store with all
// migrations applied and a stepping clock, so creation order and createdAt
// order agree. It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *docstore.SQLStore {
	t.Helper()

	clock := NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.Second)
	s, err := docstore.Open("sqlite", ":memory:", docstore.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Clock returns a strictly increasing time on every call.
type Clock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewClock starts at start and advances by step after each reading.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{next: start, step: step}
}

// Now returns the current reading and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}
