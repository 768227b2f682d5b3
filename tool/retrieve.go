package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/retrieval"
)

const defaultRetrieveLimit = 4

// retrieveTool exposes the document index to retriever agents.
type retrieveTool struct {
	index retrieval.Index
}

// NewRetrieveTool constructs the document retrieval tool.
func NewRetrieveTool(index retrieval.Index) Tool { return &retrieveTool{index: index} }

func (t *retrieveTool) Name() string { return "retrieve_documents" }

func (t *retrieveTool) Description() string {
	return "Retrieve the most relevant chunks from the local document collection for a query."
}

func (t *retrieveTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Retrieval query"},
			"limit": map[string]any{"type": "integer", "description": "Maximum number of chunks to return"},
		},
		"required": []string{"query"},
	}
}

func (t *retrieveTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("field 'query' must be non-empty string")
	}

	limit := defaultRetrieveLimit
	if raw, ok := args["limit"].(float64); ok && raw > 0 {
		limit = int(raw)
	}

	chunks, err := t.index.Search(query, limit)
	if err != nil {
		return nil, fmt.Errorf("document retrieval failed: %w", err)
	}

	if len(chunks) == 0 {
		return "No matching documents found.", nil
	}

	var sb strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&sb, "[%d] %s (score %.2f)\n%s\n\n", i+1, c.Source, c.Score, c.Text)
	}

	return strings.TrimSpace(sb.String()), nil
}
