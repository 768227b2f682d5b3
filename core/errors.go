package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAgentNotFound is returned by registry lookups for unknown agent names.
var ErrAgentNotFound = errors.New("agent not found")

// ErrTimedOut marks an invocation that exceeded its wall-clock bound. The
// orchestration loop retries the step once before failing the session.
var ErrTimedOut = errors.New("invocation timed out")

// ConfigError aggregates fatal startup validation failures (dangling handoff
// targets, missing or duplicate entry agent). It halts startup; structural
// problems are never silently dropped.
type ConfigError struct {
	Issues []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Issues, "; "))
}

// DenialReason categorizes a refused tool call.
type DenialReason string

const (
	// DenialSearchLimitExceeded means the agent hit its per-session search cap.
	DenialSearchLimitExceeded DenialReason = "search_limit_exceeded"
	// DenialDuplicateQuery means the normalized query was already issued by
	// this agent in this session.
	DenialDuplicateQuery DenialReason = "duplicate_query"
)

// Denial is a recoverable quota refusal. It is fed back to the agent as a
// constraint, never surfaced as a session failure.
type Denial struct {
	Agent  string
	Reason DenialReason
	Query  string
}

func (d *Denial) Error() string {
	return fmt.Sprintf("quota denied for agent %s: %s (query %q)", d.Agent, d.Reason, d.Query)
}

// Constraint renders the denial as the constraint text handed back to the
// model in place of a tool result.
func (d *Denial) Constraint() string {
	switch d.Reason {
	case DenialDuplicateQuery:
		return "This query was already searched in this session. Do not repeat queries; use the information you have or hand off."
	default:
		return "Search limit reached, no more searches allowed. Use the information you have and hand off to the next agent."
	}
}

// RejectionReason categorizes a session-terminating routing violation.
type RejectionReason string

const (
	// RejectionInvalidHandoffTarget means the decision named an agent outside
	// the declared handoff set. Never auto-corrected.
	RejectionInvalidHandoffTarget RejectionReason = "invalid_handoff_target"
	// RejectionMaxHopsExceeded means the session-wide hop ceiling tripped.
	RejectionMaxHopsExceeded RejectionReason = "max_hops_exceeded"
)

// Rejection is a policy violation that terminates the session with a failure
// result. It is reported in the transcript, never silently rerouted.
type Rejection struct {
	From   string
	Target string
	Reason RejectionReason
}

func (r *Rejection) Error() string {
	if r.Target != "" {
		return fmt.Sprintf("handoff rejected: %s (from %s to %s)", r.Reason, r.From, r.Target)
	}
	return fmt.Sprintf("handoff rejected: %s (from %s)", r.Reason, r.From)
}

// BackendError wraps a model backend failure so callers can distinguish it
// from orchestration policy errors.
type BackendError struct {
	Provider string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
