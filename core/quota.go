package core

import (
	"sync"
	"time"
)

// Quota tracks mutable resource counters scoped to one agent within one
// session: searches issued, distinct normalized query strings seen and
// cumulative wall-clock spent. Quotas are created lazily on first invocation
// and never shared across sessions. Returning to an agent later in the same
// session resumes its existing counters; that persistence is the primary
// anti-loop mechanism.
type Quota struct {
	mu       sync.Mutex
	searches int
	seen     map[string]struct{}
	elapsed  time.Duration
}

// NewQuota creates an empty quota.
func NewQuota() *Quota {
	return &Quota{seen: map[string]struct{}{}}
}

// SearchCount returns the number of search invocations recorded so far.
func (q *Quota) SearchCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.searches
}

// Seen reports whether the normalized query was already recorded.
func (q *Quota) Seen(normalized string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.seen[normalized]
	return ok
}

// Record increments the search counter and remembers the normalized query.
// The check-and-increment discipline lives in the quota tracker; Record is
// only called once a search has been allowed.
func (q *Quota) Record(normalized string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.searches++
	q.seen[normalized] = struct{}{}
}

// AddElapsed accumulates wall-clock time spent inside this agent.
func (q *Quota) AddElapsed(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.elapsed += d
}

// Elapsed returns the cumulative wall-clock spent in this agent.
func (q *Quota) Elapsed() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.elapsed
}

// Snapshot returns the current counters without the seen set, for clones and
// diagnostics.
func (q *Quota) Snapshot() (searches int, elapsed time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.searches, q.elapsed
}

// clone deep-copies the quota for session snapshots.
func (q *Quota) clone() *Quota {
	q.mu.Lock()
	defer q.mu.Unlock()
	c := NewQuota()
	c.searches = q.searches
	c.elapsed = q.elapsed
	for k := range q.seen {
		c.seen[k] = struct{}{}
	}
	return c
}
