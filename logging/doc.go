// Package logging defines the Logger interface used across AgentRelay plus
// slog-backed and no-op implementations.
package logging
