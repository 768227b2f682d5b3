package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentrelay/core"
)

// handoffTool requests orchestration transfer to a named agent with a
// forwarded work payload. The declared target list only shapes the schema
// description; the router enforces the graph.
type handoffTool struct {
	targets []string
}

// NewHandoffTool constructs the handoff tool advertising the given targets.
func NewHandoffTool(targets []string) Tool { return &handoffTool{targets: targets} }

func (t *handoffTool) Name() string { return "handoff" }

func (t *handoffTool) Description() string {
	if len(t.targets) == 0 {
		return "Hand off control to another agent by name, forwarding the current work product."
	}
	return fmt.Sprintf(
		"Hand off control to another agent by name, forwarding the current work product. Allowed targets: %s.",
		strings.Join(t.targets, ", "),
	)
}

func (t *handoffTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent":   map[string]any{"type": "string", "description": "Target agent name"},
			"payload": map[string]any{"type": "string", "description": "Work product or instructions forwarded to the target"},
		},
		"required": []string{"agent"},
	}
}

func (t *handoffTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	agentName, _ := args["agent"].(string)
	if agentName == "" {
		return nil, fmt.Errorf("field 'agent' must be non-empty string")
	}

	payload, _ := args["payload"].(string)

	tc.Handoff(agentName, payload)

	return map[string]any{"transferred": true, "agent": agentName}, nil
}
