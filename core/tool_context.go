package core

import (
	"context"

	"github.com/hupe1980/agentrelay/logging"
)

// ToolContext provides a constrained, auditable surface for tool
// implementations invoked by an agent. It accumulates orchestration signals
// (handoff request, approval verdict, state deltas) without directly driving
// the session; the executor reads them back after the tool call returns.
type ToolContext struct {
	ctx            context.Context
	session        *Session
	agent          *AgentSpec
	functionCallID string

	handoffTarget  string
	handoffPayload string
	verdict        *verdict

	*loggerAdapter
}

type verdict struct {
	approved bool
	feedback string
}

// NewToolContext constructs a tool context bound to a session and a unique
// functionCallID.
func NewToolContext(ctx context.Context, sess *Session, agent *AgentSpec, functionCallID string, logger logging.Logger) *ToolContext {
	return &ToolContext{
		ctx:            ctx,
		session:        sess,
		agent:          agent,
		functionCallID: functionCallID,
		loggerAdapter:  newLoggerAdapter(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// SessionID returns the session ID associated with the tool invocation.
func (tc *ToolContext) SessionID() string { return tc.session.ID }

// AgentName returns the agent name associated with the tool invocation.
func (tc *ToolContext) AgentName() string { return tc.agent.Name }

// Agent returns the spec of the invoking agent.
func (tc *ToolContext) Agent() *AgentSpec { return tc.agent }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// GetState retrieves the shared session state for the given key.
func (tc *ToolContext) GetState(k string) (any, bool) { return tc.session.GetState(k) }

// SetState records a shared session state mutation.
func (tc *ToolContext) SetState(k string, v any) { tc.session.SetState(k, v) }

// Handoff signals orchestration to transfer control to another agent with a
// forwarded payload. The router validates the target; the tool layer never
// does.
func (tc *ToolContext) Handoff(target, payload string) {
	tc.handoffTarget = target
	tc.handoffPayload = payload
	tc.LogInfo("tool.handoff.request", "from_agent", tc.AgentName(), "to_agent", target, "function_call_id", tc.functionCallID)
}

// HandoffRequest returns the accumulated handoff target and payload; ok is
// false when no handoff was signaled.
func (tc *ToolContext) HandoffRequest() (target, payload string, ok bool) {
	return tc.handoffTarget, tc.handoffPayload, tc.handoffTarget != ""
}

// Approve records an approval verdict with optional feedback. Only meaningful
// for reviewing agents; the loop ignores approvals from other roles.
func (tc *ToolContext) Approve(feedback string) {
	tc.verdict = &verdict{approved: true, feedback: feedback}
	tc.LogInfo("tool.review.approve", "agent", tc.AgentName(), "function_call_id", tc.functionCallID)
}

// RequestChanges records a rejection verdict with feedback for the writer.
func (tc *ToolContext) RequestChanges(feedback string) {
	tc.verdict = &verdict{approved: false, feedback: feedback}
	tc.LogInfo("tool.review.request_changes", "agent", tc.AgentName(), "function_call_id", tc.functionCallID)
}

// Verdict returns the accumulated review verdict; ok is false when the tool
// recorded none.
func (tc *ToolContext) Verdict() (approved bool, feedback string, ok bool) {
	if tc.verdict == nil {
		return false, "", false
	}
	return tc.verdict.approved, tc.verdict.feedback, true
}
