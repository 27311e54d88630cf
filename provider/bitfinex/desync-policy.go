package bitfinex

import (
	"time"

	"github.com/gammazero/deque"
)

const (
	DefaultDesyncThreshold = 10
	DefaultDesyncWindow    = time.Minute
	defaultRetryAfter      = 30 * time.Second
)

// DesyncPolicy decides when a desynced subscription is resubscribed. The
// exchange only sends a book snapshot right after subscribing, so the first
// desync resubscribes at once. Further attempts wait until retryAfter has
// passed without a fresh snapshot, and at most threshold resubscribes per
// subscription happen within the window.
type DesyncPolicy struct {
	threshold  int
	window     time.Duration
	retryAfter time.Duration

	resubscribes map[string]*deque.Deque[time.Time]
	pending      map[string]time.Time
	now          func() time.Time
}

func NewDesyncPolicy(threshold int, window time.Duration) *DesyncPolicy {
	if threshold <= 0 {
		threshold = DefaultDesyncThreshold
	}
	if window <= 0 {
		window = DefaultDesyncWindow
	}

	return &DesyncPolicy{
		threshold:    threshold,
		window:       window,
		retryAfter:   defaultRetryAfter,
		resubscribes: make(map[string]*deque.Deque[time.Time]),
		pending:      make(map[string]time.Time),
		now:          time.Now,
	}
}

// Allow registers a desync of the subscription key and reports whether it
// should be resubscribed now.
func (p *DesyncPolicy) Allow(key string) bool {
	now := p.now()

	if at, ok := p.pending[key]; ok && now.Sub(at) < p.retryAfter {
		return false
	}

	q, ok := p.resubscribes[key]
	if !ok {
		q = &deque.Deque[time.Time]{}
		p.resubscribes[key] = q
	}
	for q.Len() > 0 && now.Sub(q.Front()) > p.window {
		q.PopFront()
	}
	if q.Len() >= p.threshold {
		return false
	}

	q.PushBack(now)
	p.pending[key] = now
	return true
}

// Release forgets the pending resubscribe of key, e.g. because sending it failed
// or the book is live again.
func (p *DesyncPolicy) Release(key string) {
	delete(p.pending, key)
}

func (p *DesyncPolicy) Reset(key string) {
	delete(p.pending, key)
	delete(p.resubscribes, key)
}

// Count returns the resubscribes of key still inside the window.
func (p *DesyncPolicy) Count(key string) int {
	q, ok := p.resubscribes[key]
	if !ok {
		return 0
	}

	n := 0
	now := p.now()
	for i := 0; i < q.Len(); i++ {
		if now.Sub(q.At(i)) <= p.window {
			n++
		}
	}
	return n
}
