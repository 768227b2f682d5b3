// Package orchestrator implements the session-level control loop for
// AgentRelay.
//
// The Orchestrator is the coordination hub between the other layers: it owns
// the invoke/route cycle that carries a task through the agent graph, applies
// the retry policy for transient failures, and records the terminal result on
// the session.
//
// # Responsibilities (abridged)
//   - Session creation and persistence through a core.SessionStore
//   - Driving agent invocations via the executor and handoffs via the router
//   - Terminating sessions on reviewer approval, routing rejections or
//     unrecoverable agent failures
//   - Run cancellation by session ID
//
// A session succeeds only when an agent with the terminal reviewer role
// explicitly approves. Every other ending, including a plain answer from a
// non-terminal agent, produces a failure result with the triggering rule in
// Reason.
package orchestrator
