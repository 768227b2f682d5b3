// Package router turns an agent's handoff decision into the next step of a
// session. It enforces the declared handoff graph and the global hop ceiling.
package router

import (
	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/logging"
	"github.com/hupe1980/agentrelay/registry"
)

// DefaultMaxHops caps the number of handoffs in one session.
const DefaultMaxHops = 20

// Decision is the routing outcome for one step. Exactly one of Next,
// Terminate, or Rejection is set.
type Decision struct {
	// Next is the spec of the agent that receives control, nil otherwise.
	Next *core.AgentSpec
	// Payload travels to the next agent as its input.
	Payload string
	// Terminate is true when the current agent produced no handoff target.
	Terminate bool
	// Rejection is set when the requested handoff violates the graph or
	// the hop ceiling.
	Rejection *core.Rejection
}

// Options configure a Router.
type Options struct {
	// MaxHops is the session-wide handoff ceiling.
	MaxHops int
	// Logger for routing decisions.
	Logger logging.Logger
}

// Router validates handoff targets against the registry and tracks the hop
// budget on the session.
type Router struct {
	reg     *registry.Registry
	maxHops int
	logger  logging.Logger
}

// New creates a Router backed by reg.
func New(reg *registry.Registry, optFns ...func(o *Options)) *Router {
	opts := Options{
		MaxHops: DefaultMaxHops,
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxHops <= 0 {
		opts.MaxHops = DefaultMaxHops
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Router{
		reg:     reg,
		maxHops: opts.MaxHops,
		logger:  opts.Logger,
	}
}

// MaxHops returns the configured hop ceiling.
func (r *Router) MaxHops() int {
	return r.maxHops
}

// Route resolves the handoff requested by current into a routing decision.
// A missing target terminates the session. A target outside the agent's
// declared handoff list, or a request past the hop ceiling, yields a
// rejection; rejected handoffs consume no hop.
func (r *Router) Route(sess *core.Session, current *core.AgentSpec, dec core.HandoffDecision) Decision {
	if !dec.HasTarget() {
		r.logger.Debug("session terminated by agent", "session_id", sess.ID, "agent", current.Name)
		return Decision{Terminate: true}
	}

	if !current.CanHandoffTo(dec.Target) {
		r.logger.Warn("invalid handoff target", "session_id", sess.ID, "from", current.Name, "target", dec.Target)
		return Decision{Rejection: &core.Rejection{
			From:   current.Name,
			Target: dec.Target,
			Reason: core.RejectionInvalidHandoffTarget,
		}}
	}

	next, err := r.reg.Resolve(dec.Target)
	if err != nil {
		// Registry construction guarantees declared targets resolve;
		// reaching this means the spec set was mutated after startup.
		r.logger.Error("declared handoff target missing from registry", "session_id", sess.ID, "target", dec.Target)
		return Decision{Rejection: &core.Rejection{
			From:   current.Name,
			Target: dec.Target,
			Reason: core.RejectionInvalidHandoffTarget,
		}}
	}

	if sess.Hops() >= r.maxHops {
		r.logger.Warn("hop ceiling reached", "session_id", sess.ID, "from", current.Name, "target", dec.Target, "max_hops", r.maxHops)
		return Decision{Rejection: &core.Rejection{
			From:   current.Name,
			Target: dec.Target,
			Reason: core.RejectionMaxHopsExceeded,
		}}
	}

	sess.AddHop()
	sess.Visit(next.Name)

	r.logger.Debug("handoff routed", "session_id", sess.ID, "from", current.Name, "to", next.Name, "hops", sess.Hops())

	return Decision{Next: next, Payload: dec.Payload}
}
