// Package core contains the shared data model of AgentRelay: agent
// specifications, session state (transcript, quotas, visit history), handoff
// decisions, results and the error taxonomy used by the orchestration layer.
package core
