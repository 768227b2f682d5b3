package core

// HandoffDecision is the output of one agent invocation: the free-text result
// plus either no handoff (the session may terminate) or a target agent name
// with a forwarded payload (condensed notes for the next agent).
type HandoffDecision struct {
	Output   string
	Target   string
	Payload  string
	Approved bool // set only by reviewing agents that explicitly approve
	Feedback string
}

// HasTarget reports whether the agent requested a handoff.
func (d HandoffDecision) HasTarget() bool { return d.Target != "" }
