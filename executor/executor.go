// Package executor runs a single agent invocation: one model conversation
// with tool calling, bounded by the agent's wall-clock timeout and its
// search quota. The executor never routes; it reports the agent's handoff
// request and review verdict back to the orchestration loop as a decision.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/internal/util"
	"github.com/hupe1980/agentrelay/logging"
	"github.com/hupe1980/agentrelay/model"
	"github.com/hupe1980/agentrelay/quota"
	"github.com/hupe1980/agentrelay/tool"
)

// DefaultMaxIterations caps model/tool round trips within one invocation.
const DefaultMaxIterations = 8

// Options configure an Executor.
type Options struct {
	// Tracker enforces per-agent search quotas. Defaults to a fresh tracker.
	Tracker *quota.Tracker
	// MaxIterations caps tool round trips per invocation.
	MaxIterations int
	// Logger for invocation lifecycle events.
	Logger logging.Logger
}

// binding couples an agent to its model and granted tools.
type binding struct {
	model model.Model
	tools map[string]tool.Tool
	defs  []model.ToolDefinition
}

// Executor drives tool-calling conversations for registered agents.
type Executor struct {
	bindings      map[string]*binding
	tracker       *quota.Tracker
	maxIterations int
	logger        logging.Logger
}

// New creates an Executor.
func New(optFns ...func(o *Options)) *Executor {
	opts := Options{
		MaxIterations: DefaultMaxIterations,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Tracker == nil {
		opts.Tracker = quota.NewTracker(opts.Logger)
	}

	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Executor{
		bindings:      make(map[string]*binding),
		tracker:       opts.Tracker,
		maxIterations: opts.MaxIterations,
		logger:        opts.Logger,
	}
}

// Register binds an agent name to its model and granted tools. Later
// registrations for the same name replace earlier ones.
func (e *Executor) Register(agentName string, m model.Model, tools ...tool.Tool) {
	b := &binding{
		model: m,
		tools: make(map[string]tool.Tool, len(tools)),
	}

	for _, t := range tools {
		b.tools[t.Name()] = t
		b.defs = append(b.defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	e.bindings[agentName] = b
}

// Invoke runs one agent turn: system prompt rendering, the model/tool loop,
// and transcript recording. The returned decision carries the agent's final
// text plus any handoff request or review verdict its tools accumulated.
//
// Timeouts surface as core.ErrTimedOut; provider failures as
// *core.BackendError. Both leave a transcript entry behind.
func (e *Executor) Invoke(ctx context.Context, spec *core.AgentSpec, input string, sess *core.Session) (core.HandoffDecision, error) {
	b, ok := e.bindings[spec.Name]
	if !ok {
		return core.HandoffDecision{}, fmt.Errorf("no model registered for agent %q", spec.Name)
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		sess.Quota(spec.Name).AddElapsed(time.Since(start))
	}()

	instructions, err := util.RenderTemplate(spec.SystemPrompt, sess.StateSnapshot())
	if err != nil {
		return core.HandoffDecision{}, fmt.Errorf("render system prompt for agent %q: %w", spec.Name, err)
	}

	e.logger.Debug("executor.invoke.start", "session_id", sess.ID, "agent", spec.Name)

	msgs := []model.Message{{Role: "user", Text: input}}
	dec := core.HandoffDecision{}

	for iter := 0; iter < e.maxIterations; iter++ {
		resp, err := b.model.Complete(ctx, model.Request{
			Instructions: instructions,
			Messages:     msgs,
			Tools:        b.defs,
		})
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				sess.Append(core.NewTimeoutEntry(spec.Name))
				e.logger.Warn("executor.invoke.timeout", "session_id", sess.ID, "agent", spec.Name, "timeout", timeout)
				return core.HandoffDecision{}, fmt.Errorf("agent %q: %w", spec.Name, core.ErrTimedOut)
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return core.HandoffDecision{}, ctx.Err()
			}

			backendErr := &core.BackendError{Provider: b.model.Info().Provider, Err: err}
			sess.Append(core.NewErrorEntry(spec.Name, backendErr.Error()))
			e.logger.Error("executor.invoke.backend_error", "session_id", sess.ID, "agent", spec.Name, "error", err.Error())
			return core.HandoffDecision{}, backendErr
		}

		if resp.Text != "" {
			dec.Output = resp.Text
		}

		if len(resp.ToolCalls) == 0 {
			sess.Append(core.NewMessageEntry(spec.Name, input, resp.Text))
			e.logger.Debug("executor.invoke.complete", "session_id", sess.ID, "agent", spec.Name, "iterations", iter+1)
			return dec, nil
		}

		msgs = append(msgs, model.Message{
			Role:      "assistant",
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		done := false
		for _, tc := range resp.ToolCalls {
			response, signaled := e.runToolCall(ctx, b, spec, sess, &dec, tc)
			msgs = append(msgs, model.Message{
				Role:       "tool",
				Text:       response,
				ToolCallID: tc.ID,
			})
			if signaled {
				done = true
			}
		}

		if done {
			sess.Append(core.NewMessageEntry(spec.Name, input, dec.Output))
			e.logger.Debug("executor.invoke.complete", "session_id", sess.ID, "agent", spec.Name, "iterations", iter+1)
			return dec, nil
		}
	}

	return core.HandoffDecision{}, fmt.Errorf("agent %q exceeded %d tool iterations", spec.Name, e.maxIterations)
}

// runToolCall executes one tool call and returns the text fed back to the
// model plus whether the tool signaled orchestration (handoff or verdict).
// Quota-gated tools are checked before execution; a denial becomes the tool
// response so the model sees the constraint it must respect.
func (e *Executor) runToolCall(ctx context.Context, b *binding, spec *core.AgentSpec, sess *core.Session, dec *core.HandoffDecision, tc model.ToolCall) (string, bool) {
	impl, ok := b.tools[tc.Name]
	if !ok {
		reason := fmt.Sprintf("tool %s not found", tc.Name)
		sess.Append(core.NewErrorEntry(spec.Name, reason))
		return reason, false
	}

	args := map[string]any{}
	if tc.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			reason := fmt.Sprintf("invalid arguments for tool %s: %v", tc.Name, err)
			sess.Append(core.NewErrorEntry(spec.Name, reason))
			return reason, false
		}
	}

	// Charge the quota only for calls that would actually execute; a call
	// failing schema validation must not consume the budget.
	if isQuotaGated(tc.Name) && util.ValidateParameters(args, impl.Parameters()) == nil {
		query, _ := args["query"].(string)
		if denial := e.tracker.CheckAndIncrement(sess, spec, query); denial != nil {
			sess.Append(core.NewToolDeniedEntry(spec.Name, tc.Name, query, string(denial.Reason)))
			return denial.Constraint(), false
		}
	}

	toolCtx := core.NewToolContext(ctx, sess, spec, tc.ID, e.logger)

	result, err := tool.Invoke(impl, toolCtx, args)
	if err != nil {
		sess.Append(core.NewToolCallEntry(spec.Name, tc.Name, tc.Arguments, err.Error()))
		return err.Error(), false
	}

	response := stringify(result)
	sess.Append(core.NewToolCallEntry(spec.Name, tc.Name, tc.Arguments, response))

	signaled := false

	if target, payload, ok := toolCtx.HandoffRequest(); ok {
		dec.Target = target
		dec.Payload = payload
		sess.Append(core.NewHandoffEntry(spec.Name, target, payload))
		signaled = true
	}

	if approved, feedback, ok := toolCtx.Verdict(); ok {
		dec.Approved = approved
		dec.Feedback = feedback
		signaled = true
	}

	return response, signaled
}

// isQuotaGated reports whether a tool consumes the agent's search budget.
func isQuotaGated(toolName string) bool {
	switch toolName {
	case "search_web", "retrieve_documents":
		return true
	default:
		return false
	}
}

func stringify(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return v.Error()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// IsRetryable reports whether an invocation error warrants one retry:
// timeouts and provider backend failures qualify, policy failures do not.
func IsRetryable(err error) bool {
	if errors.Is(err, core.ErrTimedOut) {
		return true
	}
	var backendErr *core.BackendError
	return errors.As(err, &backendErr)
}
