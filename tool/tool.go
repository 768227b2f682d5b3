// Package tool implements the function calling subsystem that lets agents
// invoke their granted capabilities (web search, document retrieval, handoff,
// review verdicts) with schema validated arguments and consistent error
// handling.
package tool

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/internal/util"
)

// Tool defines the interface for agent capabilities beyond text generation.
//
// All tools have access to ToolContext for session state and orchestration
// signals (handoff requests, review verdicts).
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be thread-safe if used concurrently
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description returns a human-readable description provided to the
	// model so it understands when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input.
	Parameters() map[string]any

	// Call executes the tool with validated arguments and ToolContext.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// Invoke validates args against the tool's schema then calls it, wrapping
// failures as *ToolError with consistent codes:
//
//	*ToolError (returned directly)  -> forwarded unchanged
//	validation failure              -> *ToolError{Code: "VALIDATION_ERROR"}
//	other error                     -> *ToolError{Code: "EXECUTION_ERROR"}
func Invoke(t Tool, toolCtx *core.ToolContext, args map[string]any) (any, error) {
	start := time.Now()

	toolCtx.LogDebug("tool.call.start", "tool", t.Name(), "fc_id", toolCtx.FunctionCallID())

	if err := util.ValidateParameters(args, t.Parameters()); err != nil {
		toolCtx.LogWarn("tool.call.validation_failed", "tool", t.Name(), "error", err.Error())

		return nil, &ToolError{
			Tool:    t.Name(),
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := t.Call(toolCtx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			toolCtx.LogError("tool.call.error", "tool", t.Name(), "error", toolErr.Message)

			return nil, toolErr
		}

		toolCtx.LogError("tool.call.error", "tool", t.Name(), "error", err.Error())

		return nil, &ToolError{
			Tool:    t.Name(),
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}

	toolCtx.LogInfo("tool.call.success", "tool", t.Name(), "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
