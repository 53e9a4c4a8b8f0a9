// Global agreement on cross-component contracts.
// Components take these as constructor parameters instead of reading
// process-wide state, so tests can substitute deterministic versions.

package agreement

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock reads (timeout anchors, attestation capture
// times). Production uses RealClock; tests use ManualClock.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// ManualClock is a hand-driven clock for tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
