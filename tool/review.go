package tool

import (
	"github.com/hupe1980/agentrelay/core"
)

// reviewStateKey stores the latest review feedback in shared session state so
// the writer can read it on the next revision pass.
const reviewStateKey = "review"

// reviewTool records the reviewer's verdict on the current work product.
// Approval from a terminal reviewer ends the session successfully; a change
// request feeds the feedback back into the revision loop.
type reviewTool struct{}

// NewReviewTool constructs the review verdict tool.
func NewReviewTool() Tool { return &reviewTool{} }

func (t *reviewTool) Name() string { return "review_report" }

func (t *reviewTool) Description() string {
	return "Record the review verdict for the current work product. Set approved to true to accept it as final, or false with feedback describing the required changes."
}

func (t *reviewTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"approved": map[string]any{"type": "boolean", "description": "Whether the work product is accepted as final"},
			"feedback": map[string]any{"type": "string", "description": "Review feedback; required when requesting changes"},
		},
		"required": []string{"approved"},
	}
}

func (t *reviewTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	approved, _ := args["approved"].(bool)
	feedback, _ := args["feedback"].(string)

	tc.SetState(reviewStateKey, feedback)

	if approved {
		tc.Approve(feedback)
		return map[string]any{"recorded": true, "approved": true}, nil
	}

	tc.RequestChanges(feedback)

	return map[string]any{"recorded": true, "approved": false}, nil
}
