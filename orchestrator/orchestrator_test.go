package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/executor"
	"github.com/hupe1980/agentrelay/model"
	"github.com/hupe1980/agentrelay/registry"
	"github.com/hupe1980/agentrelay/router"
	"github.com/hupe1980/agentrelay/tool"
	"github.com/hupe1980/agentrelay/websearch"
)

type fixture struct {
	reg    *registry.Registry
	exec   *executor.Executor
	models map[string]*model.MockModel
}

type recordingProvider struct {
	queries []string
}

func (p *recordingProvider) Search(_ context.Context, query string) ([]websearch.Result, error) {
	p.queries = append(p.queries, query)
	return []websearch.Result{{Title: "hit", URL: "https://example.com"}}, nil
}

// newFixture wires the default topology: root routes work, browser searches,
// write drafts, review approves or bounces back to write.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg, err := registry.New(
		&core.AgentSpec{Name: "root", Role: core.RoleManager, HandoffTargets: []string{"browser", "write"}},
		&core.AgentSpec{Name: "browser", Role: core.RoleWorker, Capabilities: []core.Capability{core.CapabilityWebSearch}, HandoffTargets: []string{"write"}},
		&core.AgentSpec{Name: "write", Role: core.RoleWorker, Capabilities: []core.Capability{core.CapabilityDrafting}, HandoffTargets: []string{"review"}},
		&core.AgentSpec{Name: "review", Role: core.RoleReviewer, Capabilities: []core.Capability{core.CapabilityReviewing}, HandoffTargets: []string{"write"}},
	)
	require.NoError(t, err)

	models := map[string]*model.MockModel{
		"root":    model.NewMockModel("mock-root", "test"),
		"browser": model.NewMockModel("mock-browser", "test"),
		"write":   model.NewMockModel("mock-write", "test"),
		"review":  model.NewMockModel("mock-review", "test"),
	}

	exec := executor.New()
	exec.Register("root", models["root"], tool.NewHandoffTool([]string{"browser", "write"}))
	exec.Register("browser", models["browser"], tool.NewSearchTool(&recordingProvider{}), tool.NewHandoffTool([]string{"write"}))
	exec.Register("write", models["write"], tool.NewHandoffTool([]string{"review"}))
	exec.Register("review", models["review"], tool.NewReviewTool(), tool.NewHandoffTool([]string{"write"}))

	return &fixture{reg: reg, exec: exec, models: models}
}

func (f *fixture) orchestrator(optFns ...func(o *Options)) *Orchestrator {
	return New(f.reg, f.exec, router.New(f.reg), optFns...)
}

func handoffCall(target, payload string) *model.Response {
	return &model.Response{
		ToolCalls: []model.ToolCall{{
			ID:        core.NewID(),
			Name:      "handoff",
			Arguments: fmt.Sprintf(`{"agent":%q,"payload":%q}`, target, payload),
		}},
		FinishReason: "tool_calls",
	}
}

func reviewCall(approved bool, feedback string) *model.Response {
	return &model.Response{
		ToolCalls: []model.ToolCall{{
			ID:        core.NewID(),
			Name:      "review_report",
			Arguments: fmt.Sprintf(`{"approved":%t,"feedback":%q}`, approved, feedback),
		}},
		FinishReason: "tool_calls",
	}
}

func TestSubmit_ApprovedPipeline(t *testing.T) {
	f := newFixture(t)

	f.models["root"].Enqueue(handoffCall("write", "draft an article about goroutines"))
	f.models["write"].Enqueue(handoffCall("review", "The article draft v1"))
	f.models["review"].Enqueue(reviewCall(true, "well sourced"))

	result, err := f.orchestrator().Submit(context.Background(), "write an article about goroutines")
	require.NoError(t, err)

	assert.Equal(t, core.StatusApproved, result.Status)
	assert.NotEmpty(t, result.Transcript)

	var handoffs int
	for _, e := range result.Transcript {
		if e.Kind == core.EntryHandoff {
			handoffs++
		}
	}
	assert.Equal(t, 2, handoffs)
}

func TestSubmit_RevisionLoopThenApproval(t *testing.T) {
	f := newFixture(t)

	f.models["root"].Enqueue(handoffCall("write", "draft it"))
	f.models["write"].Enqueue(
		handoffCall("review", "draft v1"),
		handoffCall("review", "draft v2"),
	)
	// First pass requests changes and hands back to the writer.
	f.models["review"].Enqueue(
		&model.Response{
			ToolCalls: []model.ToolCall{
				{ID: core.NewID(), Name: "review_report", Arguments: `{"approved":false,"feedback":"add sources"}`},
				{ID: core.NewID(), Name: "handoff", Arguments: `{"agent":"write","payload":"add sources to draft v1"}`},
			},
			FinishReason: "tool_calls",
		},
		reviewCall(true, "looks good now"),
	)

	result, err := f.orchestrator().Submit(context.Background(), "write an article")
	require.NoError(t, err)

	assert.Equal(t, core.StatusApproved, result.Status)

	// The change-request feedback is visible to the writer via shared state.
	reqs := f.models["write"].Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[1].Messages[0].Text, "add sources to draft v1")
}

func TestSubmit_InvalidHandoffFailsSession(t *testing.T) {
	f := newFixture(t)

	// browser is not in root's declared targets after this override; use
	// write trying to reach root instead, which the graph forbids.
	f.models["root"].Enqueue(handoffCall("write", "draft it"))
	f.models["write"].Enqueue(handoffCall("root", "send it back"))

	result, err := f.orchestrator().Submit(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Contains(t, result.Reason, "invalid_handoff_target")

	var errEntries int
	for _, e := range result.Transcript {
		if e.Kind == core.EntryError {
			errEntries++
		}
	}
	assert.Equal(t, 1, errEntries)
}

func TestSubmit_HopCeilingEndsPingPong(t *testing.T) {
	f := newFixture(t)

	f.models["root"].Enqueue(handoffCall("write", "draft it"))
	for i := 0; i < 30; i++ {
		f.models["write"].Enqueue(handoffCall("review", fmt.Sprintf("draft v%d", i+1)))
		f.models["review"].Enqueue(&model.Response{
			ToolCalls: []model.ToolCall{
				{ID: core.NewID(), Name: "review_report", Arguments: `{"approved":false,"feedback":"still not right"}`},
				{ID: core.NewID(), Name: "handoff", Arguments: `{"agent":"write","payload":"revise again"}`},
			},
			FinishReason: "tool_calls",
		})
	}

	result, err := f.orchestrator().Submit(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Contains(t, result.Reason, "max_hops_exceeded")
}

func TestSubmit_SearchDenialThenHandoff(t *testing.T) {
	f := newFixture(t)

	f.models["root"].Enqueue(handoffCall("browser", "research goroutines"))
	f.models["browser"].Enqueue(
		&model.Response{ToolCalls: []model.ToolCall{{ID: core.NewID(), Name: "search_web", Arguments: `{"query":"goroutines"}`}}, FinishReason: "tool_calls"},
		&model.Response{ToolCalls: []model.ToolCall{{ID: core.NewID(), Name: "search_web", Arguments: `{"query":"channels"}`}}, FinishReason: "tool_calls"},
		&model.Response{ToolCalls: []model.ToolCall{{ID: core.NewID(), Name: "search_web", Arguments: `{"query":"select statement"}`}}, FinishReason: "tool_calls"},
		handoffCall("write", "notes from two searches"),
	)
	f.models["write"].Enqueue(handoffCall("review", "draft"))
	f.models["review"].Enqueue(reviewCall(true, "fine"))

	result, err := f.orchestrator().Submit(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, core.StatusApproved, result.Status)

	var denied int
	for _, e := range result.Transcript {
		if e.Kind == core.EntryToolDenied {
			denied++
		}
	}
	assert.Equal(t, 1, denied, "third search is denied, session continues")
}

func TestSubmit_TerminationWithoutApprovalFails(t *testing.T) {
	f := newFixture(t)

	// Manager answers directly without handing off to anyone.
	f.models["root"].Enqueue(&model.Response{Text: "here is my answer", FinishReason: "stop"})

	result, err := f.orchestrator().Submit(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Contains(t, result.Reason, "without approval")
}

func TestSubmit_RetriesBackendErrorOnce(t *testing.T) {
	flaky := &flakyModel{failures: 1}
	exec := executor.New()
	exec.Register("root", flaky)

	reg, err := registry.New(&core.AgentSpec{Name: "root", Role: core.RoleManager})
	require.NoError(t, err)

	o := New(reg, exec, router.New(reg))
	result, err := o.Submit(context.Background(), "task")
	require.NoError(t, err)

	// One failure, one successful retry; then termination without approval.
	assert.Equal(t, 2, flaky.calls)
	assert.Equal(t, core.StatusFailed, result.Status)
}

func TestSubmit_RetryBudgetExhausted(t *testing.T) {
	flaky := &flakyModel{failures: 10}
	exec := executor.New()
	exec.Register("root", flaky)

	reg, err := registry.New(&core.AgentSpec{Name: "root", Role: core.RoleManager})
	require.NoError(t, err)

	o := New(reg, exec, router.New(reg))
	result, err := o.Submit(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, 2, flaky.calls, "initial attempt plus one retry")
	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Contains(t, result.Reason, "root failed")
}

func TestSubmit_CancelUnknownSession(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.orchestrator().Cancel("missing"))
}

func TestSubmit_ReplayYieldsSameTerminalStatus(t *testing.T) {
	// The same scripted decision sequence against a fresh session must reach
	// the same terminal status every time.
	scripts := map[string]func(f *fixture){
		"approved": func(f *fixture) {
			f.models["root"].Enqueue(handoffCall("write", "draft it"))
			f.models["write"].Enqueue(handoffCall("review", "draft v1"))
			f.models["review"].Enqueue(reviewCall(true, "ship it"))
		},
		"invalid handoff": func(f *fixture) {
			f.models["root"].Enqueue(handoffCall("write", "draft it"))
			f.models["write"].Enqueue(handoffCall("browser", "look things up"))
		},
	}

	for name, script := range scripts {
		t.Run(name, func(t *testing.T) {
			run := func() core.Result {
				f := newFixture(t)
				script(f)
				result, err := f.orchestrator().Submit(context.Background(), "task")
				require.NoError(t, err)
				return result
			}

			first := run()
			second := run()

			assert.Equal(t, first.Status, second.Status)
			assert.Equal(t, first.Reason, second.Reason)
		})
	}
}

// flakyModel fails the first N calls then succeeds with a plain completion.
type flakyModel struct {
	failures int
	calls    int
}

func (m *flakyModel) Complete(_ context.Context, _ model.Request) (*model.Response, error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, fmt.Errorf("upstream unavailable")
	}
	return &model.Response{Text: "recovered", FinishReason: "stop"}, nil
}

func (m *flakyModel) Info() model.Info {
	return model.Info{Name: "flaky", Provider: "test"}
}
