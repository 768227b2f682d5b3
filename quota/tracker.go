// Package quota enforces per-(session, agent) resource limits on search
// capability invocations: a hard count ceiling and duplicate-query
// suppression. Quotas persist for the lifetime of a session, so an agent that
// is handed control again later resumes its counters instead of resetting
// them.
package quota

import (
	"strings"
	"unicode"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/logging"
)

// DefaultSearchLimit bounds distinct searches per agent per session when the
// spec does not configure one.
const DefaultSearchLimit = 2

// Tracker gates search-capability tool calls. Check and increment are a
// single operation: a session has one active agent at a time, so the
// single-writer discipline plus the quota's internal lock guarantees no
// caller observes a stale count between check and use.
type Tracker struct {
	logger logging.Logger
}

// NewTracker constructs a Tracker.
func NewTracker(logger logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Tracker{logger: logger}
}

// CheckAndIncrement validates queryText against the agent's quota and, when
// allowed, records it atomically. A non-nil Denial means the call must not
// proceed; the denial is recoverable and is fed back to the agent as a
// constraint.
func (t *Tracker) CheckAndIncrement(sess *core.Session, spec *core.AgentSpec, queryText string) *core.Denial {
	limit := spec.SearchLimit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	q := sess.Quota(spec.Name)
	normalized := Normalize(queryText)

	if q.Seen(normalized) {
		t.logger.Debug("quota.denied", "agent", spec.Name, "reason", core.DenialDuplicateQuery, "query", queryText)
		return &core.Denial{Agent: spec.Name, Reason: core.DenialDuplicateQuery, Query: queryText}
	}

	if q.SearchCount() >= limit {
		t.logger.Debug("quota.denied", "agent", spec.Name, "reason", core.DenialSearchLimitExceeded, "query", queryText)
		return &core.Denial{Agent: spec.Name, Reason: core.DenialSearchLimitExceeded, Query: queryText}
	}

	q.Record(normalized)
	t.logger.Debug("quota.allowed", "agent", spec.Name, "count", q.SearchCount(), "limit", limit)

	return nil
}

// Normalize reduces a query to its canonical comparison form: lower-cased,
// punctuation stripped, whitespace collapsed. "What is Go?" and "what is go"
// count as the same query.
func Normalize(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	lastSpace := true
	for _, r := range strings.ToLower(query) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}
