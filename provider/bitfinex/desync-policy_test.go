package bitfinex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestPolicy(threshold int, window time.Duration) (*DesyncPolicy, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	p := NewDesyncPolicy(threshold, window)
	p.now = clock.Now
	return p, clock
}

func TestDesyncPolicy_FirstDesyncResubscribes(t *testing.T) {
	p, _ := newTestPolicy(DefaultDesyncThreshold, DefaultDesyncWindow)

	assert.True(t, p.Allow("book:tBTCUSD"))
	assert.Equal(t, 1, p.Count("book:tBTCUSD"))
}

func TestDesyncPolicy_PendingResubscribe(t *testing.T) {
	p, clock := newTestPolicy(DefaultDesyncThreshold, DefaultDesyncWindow)

	assert.True(t, p.Allow("book:tBTCUSD"))
	clock.Advance(time.Second)
	assert.False(t, p.Allow("book:tBTCUSD"))
	clock.Advance(defaultRetryAfter)
	assert.True(t, p.Allow("book:tBTCUSD"))
	assert.Equal(t, 2, p.Count("book:tBTCUSD"))

	p.Release("book:tBTCUSD")
	assert.True(t, p.Allow("book:tBTCUSD"))
}

func TestDesyncPolicy_Threshold(t *testing.T) {
	p, clock := newTestPolicy(2, time.Minute)

	assert.True(t, p.Allow("book:tBTCUSD"))
	p.Release("book:tBTCUSD")
	assert.True(t, p.Allow("book:tBTCUSD"))
	p.Release("book:tBTCUSD")
	assert.False(t, p.Allow("book:tBTCUSD"))

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 0, p.Count("book:tBTCUSD"))
	assert.True(t, p.Allow("book:tBTCUSD"))
}

func TestDesyncPolicy_SlowDeltaRate(t *testing.T) {
	p, clock := newTestPolicy(DefaultDesyncThreshold, DefaultDesyncWindow)

	allowed := 0
	for i := 0; i < 240; i++ {
		if p.Allow("book:tBTCUSD") {
			allowed++
		}
		clock.Advance(15 * time.Second)
	}

	assert.Equal(t, 120, allowed)
}

func TestDesyncPolicy_KeysAreIndependent(t *testing.T) {
	p, _ := newTestPolicy(1, time.Minute)

	assert.True(t, p.Allow("book:tBTCUSD"))
	assert.True(t, p.Allow("book-raw:tBTCUSD"))
	assert.False(t, p.Allow("book:tBTCUSD"))

	p.Reset("book:tBTCUSD")
	assert.Equal(t, 0, p.Count("book:tBTCUSD"))
	assert.Equal(t, 1, p.Count("book-raw:tBTCUSD"))
	assert.True(t, p.Allow("book:tBTCUSD"))
}

func TestDesyncPolicy_Defaults(t *testing.T) {
	p := NewDesyncPolicy(0, 0)
	assert.Equal(t, DefaultDesyncThreshold, p.threshold)
	assert.Equal(t, DefaultDesyncWindow, p.window)
}
