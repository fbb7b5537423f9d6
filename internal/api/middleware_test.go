package api

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func trackedClients(l *rateLimiter) int {
	n := 0
	l.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func newClockedLimiter(rps float64, burst int) (*rateLimiter, *stepClock) {
	clock := &stepClock{t: time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)}
	l := newRateLimiter(rps, burst)
	l.now = clock.Now
	l.lastSweep.Store(clock.Now().UnixNano())
	return l, clock
}

func TestRateLimiterPerClient(t *testing.T) {
	l, _ := newClockedLimiter(1, 2)

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))

	// Another client has its own bucket.
	assert.True(t, l.allow("10.0.0.2"))
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	l, clock := newClockedLimiter(1, 2)

	for i := range 100 {
		l.allow(fmt.Sprintf("10.0.1.%d", i))
	}
	assert.Equal(t, 100, trackedClients(l))

	clock.Advance(limiterIdleTTL / 2)
	l.allow("10.0.2.1")
	assert.Equal(t, 101, trackedClients(l), "no sweep before the idle window elapses")

	clock.Advance(limiterIdleTTL/2 + time.Second)
	l.allow("10.0.2.2")
	assert.Equal(t, 2, trackedClients(l), "only clients seen within the idle window survive")
}

func TestRateLimiterKeepsActiveClients(t *testing.T) {
	l, clock := newClockedLimiter(0.001, 1)

	assert.True(t, l.allow("10.0.0.9"))
	for range 3 {
		clock.Advance(limiterIdleTTL / 2)
		assert.False(t, l.allow("10.0.0.9"), "a busy client keeps its drained bucket")
	}
	assert.Equal(t, 1, trackedClients(l))
}
