// Package orchestrator drives a task through the agent graph: it invokes the
// entry agent, follows routed handoffs, and terminates when a terminal
// reviewer approves the work product or a policy rule ends the session.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/executor"
	"github.com/hupe1980/agentrelay/logging"
	"github.com/hupe1980/agentrelay/registry"
	"github.com/hupe1980/agentrelay/router"
	"github.com/hupe1980/agentrelay/session"
)

// DefaultMaxRetries is the number of additional attempts granted to a step
// that failed with a timeout or provider backend error.
const DefaultMaxRetries = 1

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Store persists sessions. Defaults to an in-memory store.
	Store core.SessionStore
	// MaxRetries is the per-step retry budget for retryable failures.
	MaxRetries int
	// Logger for orchestration lifecycle events.
	Logger logging.Logger
}

// Orchestrator coordinates sessions end to end. Public methods are safe for
// concurrent use.
type Orchestrator struct {
	reg  *registry.Registry
	exec *executor.Executor
	rtr  *router.Router

	store      core.SessionStore
	maxRetries int
	logger     logging.Logger

	mu         sync.Mutex
	activeRuns map[string]context.CancelFunc
}

// New constructs an Orchestrator with optional overrides.
func New(reg *registry.Registry, exec *executor.Executor, rtr *router.Router, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Store:      session.NewInMemoryStore(),
		MaxRetries: DefaultMaxRetries,
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Store == nil {
		opts.Store = session.NewInMemoryStore()
	}

	if opts.MaxRetries < 0 {
		opts.MaxRetries = DefaultMaxRetries
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Orchestrator{
		reg:        reg,
		exec:       exec,
		rtr:        rtr,
		store:      opts.Store,
		maxRetries: opts.MaxRetries,
		logger:     opts.Logger,
		activeRuns: make(map[string]context.CancelFunc),
	}
}

// Submit runs a task through the agent graph until termination and returns
// the session result. The error return covers infrastructure failures only;
// policy terminations (rejections, missing approval) come back as a failed
// Result with a nil error.
func (o *Orchestrator) Submit(ctx context.Context, task string) (core.Result, error) {
	sessionID := core.NewID()

	sess, err := o.store.Create(sessionID, task)
	if err != nil {
		return core.Result{}, fmt.Errorf("create session: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.mu.Lock()
	o.activeRuns[sessionID] = cancel
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.activeRuns, sessionID)
		o.mu.Unlock()
	}()

	o.logger.Info("orchestrator.submit", "session_id", sessionID, "task", task)

	result := o.run(ctx, sess)

	sess.SetResult(result)
	if err := o.store.Save(sess); err != nil {
		return core.Result{}, fmt.Errorf("save session: %w", err)
	}

	o.logger.Info("orchestrator.done", "session_id", sessionID, "status", string(result.Status))

	return result, nil
}

// Cancel aborts an in-flight session. It reports whether a run was found.
func (o *Orchestrator) Cancel(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	cancel, ok := o.activeRuns[sessionID]
	if ok {
		cancel()
	}

	return ok
}

// Session returns the stored session for inspection after Submit.
func (o *Orchestrator) Session(sessionID string) (*core.Session, error) {
	return o.store.Get(sessionID)
}

// run executes the orchestration loop on sess and produces its result.
func (o *Orchestrator) run(ctx context.Context, sess *core.Session) core.Result {
	current := o.reg.Entry()
	if current == nil {
		return failure(sess, "no entry agent configured")
	}

	sess.Visit(current.Name)

	input := sess.Task
	lastOutput := ""

	for {
		dec, err := o.invokeWithRetry(ctx, current, input, sess)
		if err != nil {
			return failure(sess, fmt.Sprintf("agent %s failed: %v", current.Name, err))
		}

		if dec.Output != "" {
			lastOutput = dec.Output
		}

		// Approval by a terminal reviewer ends the session regardless of
		// any handoff the model also requested.
		if current.IsTerminal() && dec.Approved {
			return success(sess, lastOutput)
		}

		routing := o.rtr.Route(sess, current, dec)

		switch {
		case routing.Rejection != nil:
			sess.Append(core.NewErrorEntry(current.Name, routing.Rejection.Error()))
			return failure(sess, routing.Rejection.Error())

		case routing.Terminate:
			// Reaching here means no terminal approval was recorded.
			return failure(sess, fmt.Sprintf("session ended at agent %s without approval from a terminal reviewer", current.Name))

		default:
			current = routing.Next
			input = routing.Payload
			if input == "" {
				input = lastOutput
			}
		}

		if err := o.store.Save(sess); err != nil {
			return failure(sess, fmt.Sprintf("persist session: %v", err))
		}
	}
}

// invokeWithRetry runs one step, granting the retry budget to timeouts and
// backend errors only.
func (o *Orchestrator) invokeWithRetry(ctx context.Context, spec *core.AgentSpec, input string, sess *core.Session) (core.HandoffDecision, error) {
	var (
		dec core.HandoffDecision
		err error
	)

	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			o.logger.Warn("orchestrator.step.retry", "session_id", sess.ID, "agent", spec.Name, "attempt", attempt)
		}

		dec, err = o.exec.Invoke(ctx, spec, input, sess)
		if err == nil {
			return dec, nil
		}

		if !executor.IsRetryable(err) || ctx.Err() != nil {
			return core.HandoffDecision{}, err
		}
	}

	return core.HandoffDecision{}, err
}

// success finalizes sess as approved. First result wins; replays return the
// recorded outcome unchanged.
func success(sess *core.Session, output string) core.Result {
	sess.SetResult(core.Result{
		Status:     core.StatusApproved,
		Output:     output,
		Transcript: sess.Transcript(),
	})
	return *sess.Result()
}

// failure finalizes sess as failed with a reason.
func failure(sess *core.Session, reason string) core.Result {
	sess.SetResult(core.Result{
		Status:     core.StatusFailed,
		Reason:     reason,
		Transcript: sess.Transcript(),
	})
	return *sess.Result()
}
