package core

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind categorizes a transcript entry.
type EntryKind string

const (
	// EntryMessage records a completed agent invocation (input and output text).
	EntryMessage EntryKind = "message"
	// EntryToolCall records an executed tool call and its result.
	EntryToolCall EntryKind = "tool_call"
	// EntryToolDenied records a tool call the quota tracker refused.
	EntryToolDenied EntryKind = "tool_denied"
	// EntryHandoff records a control transfer between two agents.
	EntryHandoff EntryKind = "handoff"
	// EntryTimeout records an invocation that exceeded its wall-clock bound.
	EntryTimeout EntryKind = "timeout"
	// EntryError records a backend or policy failure.
	EntryError EntryKind = "error"
)

// Entry is one element of a session transcript. After emission it should be
// treated as immutable. The transcript is the session's audit trail: it must
// contain enough detail to diagnose which rule terminated a session.
type Entry struct {
	ID        string    `json:"id"`
	Agent     string    `json:"agent"`
	Kind      EntryKind `json:"kind"`
	Input     string    `json:"input,omitempty"`
	Output    string    `json:"output,omitempty"`
	Tool      string    `json:"tool,omitempty"`
	Target    string    `json:"target,omitempty"` // handoff destination
	Reason    string    `json:"reason,omitempty"` // denial / rejection / error detail
	Timestamp time.Time `json:"timestamp"`
}

// NewEntry creates a bare entry authored by agent.
// Prefer the helper constructors for common semantic categories.
func NewEntry(agent string, kind EntryKind) Entry {
	return Entry{
		ID:        NewID(),
		Agent:     agent,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// NewMessageEntry records a completed invocation turn.
func NewMessageEntry(agent, input, output string) Entry {
	e := NewEntry(agent, EntryMessage)
	e.Input = input
	e.Output = output
	return e
}

// NewToolCallEntry records an executed tool call.
func NewToolCallEntry(agent, tool, input, output string) Entry {
	e := NewEntry(agent, EntryToolCall)
	e.Tool = tool
	e.Input = input
	e.Output = output
	return e
}

// NewToolDeniedEntry records a quota-denied tool call for auditability.
func NewToolDeniedEntry(agent, tool, input, reason string) Entry {
	e := NewEntry(agent, EntryToolDenied)
	e.Tool = tool
	e.Input = input
	e.Reason = reason
	return e
}

// NewHandoffEntry records a control transfer from agent to target.
func NewHandoffEntry(agent, target, payload string) Entry {
	e := NewEntry(agent, EntryHandoff)
	e.Target = target
	e.Input = payload
	return e
}

// NewTimeoutEntry records an invocation that hit its wall-clock bound.
func NewTimeoutEntry(agent string) Entry {
	e := NewEntry(agent, EntryTimeout)
	e.Reason = "invocation timed out"
	return e
}

// NewErrorEntry records a backend or policy failure attributed to agent.
func NewErrorEntry(agent, reason string) Entry {
	e := NewEntry(agent, EntryError)
	e.Reason = reason
	return e
}

// NewID generates a new unique identifier for entries and sessions.
func NewID() string { return uuid.NewString() }
