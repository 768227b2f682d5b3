// Package registry holds the immutable catalogue of agent definitions loaded
// once at startup. Construction validates the handoff graph: every declared
// target must resolve to a known spec and exactly one agent must carry the
// manager role. Structural violations halt startup instead of being dropped.
package registry

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/quota"
)

// DefaultTimeout bounds an invocation when the spec does not configure one.
const DefaultTimeout = 120 * time.Second

// Severity classifies a graph validation finding.
type Severity string

const (
	// SeverityWarning marks a policy oddity that does not block startup.
	SeverityWarning Severity = "warning"
	// SeverityError marks a structural defect. Errors never reach
	// ValidateGraph output; New fails instead.
	SeverityError Severity = "error"
)

// Issue is one graph validation finding.
type Issue struct {
	Severity Severity
	Agent    string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Agent, i.Message)
}

// Registry is the read-only AgentSpec catalogue shared by the router and
// executor. Safe for concurrent use after construction.
type Registry struct {
	specs map[string]*core.AgentSpec
	entry string
}

// New builds a registry from specs and validates the graph structure.
// It returns a *core.ConfigError when any can_handoff_to target is undefined,
// names collide, or the manager role is missing or duplicated.
func New(specs ...*core.AgentSpec) (*Registry, error) {
	r := &Registry{specs: make(map[string]*core.AgentSpec, len(specs))}

	var issues []string

	for _, spec := range specs {
		if spec.Name == "" {
			issues = append(issues, "agent with empty name")
			continue
		}
		if _, dup := r.specs[spec.Name]; dup {
			issues = append(issues, fmt.Sprintf("duplicate agent name %q", spec.Name))
			continue
		}
		applyDefaults(spec)
		r.specs[spec.Name] = spec
	}

	for _, spec := range r.specs {
		for _, target := range spec.HandoffTargets {
			if _, ok := r.specs[target]; !ok {
				issues = append(issues, fmt.Sprintf("agent %q declares undefined handoff target %q", spec.Name, target))
			}
		}
	}

	var managers []string
	for _, spec := range r.specs {
		if spec.Role == core.RoleManager {
			managers = append(managers, spec.Name)
		}
	}
	switch len(managers) {
	case 0:
		issues = append(issues, "no agent marked as manager (entry agent)")
	case 1:
		r.entry = managers[0]
	default:
		issues = append(issues, fmt.Sprintf("multiple agents marked as manager: %v", managers))
	}

	if len(issues) > 0 {
		return nil, &core.ConfigError{Issues: issues}
	}

	return r, nil
}

func applyDefaults(spec *core.AgentSpec) {
	if spec.SearchLimit <= 0 {
		spec.SearchLimit = quota.DefaultSearchLimit
	}
	if spec.Timeout <= 0 {
		spec.Timeout = DefaultTimeout
	}
	if spec.Role == "" {
		spec.Role = core.RoleWorker
	}
}

// Resolve returns the spec registered under name.
func (r *Registry) Resolve(name string) (*core.AgentSpec, error) {
	spec, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrAgentNotFound, name)
	}
	return spec, nil
}

// Entry returns the designated entry (manager) agent.
func (r *Registry) Entry() *core.AgentSpec {
	return r.specs[r.entry]
}

// Names returns all registered agent names in unspecified order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	return names
}

// ValidateGraph reports non-fatal structural findings: agents unreachable
// from the entry agent, topologies with no reachable terminal reviewer, and
// terminal reviewers declaring outgoing handoffs (a policy choice, typically
// a revision loop back to the writer). The graph may legitimately contain
// cycles (write-review); those are broken at runtime by quotas and the hop
// ceiling, never assumed safe here.
func (r *Registry) ValidateGraph() []Issue {
	var issues []Issue

	reachable := map[string]bool{}
	var walk func(name string)
	walk = func(name string) {
		if reachable[name] {
			return
		}
		reachable[name] = true
		spec, ok := r.specs[name]
		if !ok {
			return
		}
		for _, target := range spec.HandoffTargets {
			walk(target)
		}
	}
	walk(r.entry)

	terminalReachable := false
	for name, spec := range r.specs {
		if !reachable[name] {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Agent:    name,
				Message:  "unreachable from the entry agent",
			})
			continue
		}
		if spec.IsTerminal() {
			terminalReachable = true
		}
		if spec.IsTerminal() && len(spec.HandoffTargets) > 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Agent:    name,
				Message:  fmt.Sprintf("terminal reviewer declares outgoing handoff targets %v, sessions can continue past review", spec.HandoffTargets),
			})
		}
	}

	if !terminalReachable {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Agent:    r.entry,
			Message:  "no terminal reviewer reachable from the entry agent, sessions can never be approved",
		})
	}

	return issues
}
