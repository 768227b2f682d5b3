package core

import "time"

// Role categorizes an agent within the handoff graph.
type Role string

const (
	// RoleManager marks the entry agent that receives the user task first.
	RoleManager Role = "manager"
	// RoleWorker marks an intermediate agent (research, drafting, ...).
	RoleWorker Role = "worker"
	// RoleReviewer marks the terminal reviewer whose approval ends a session
	// successfully.
	RoleReviewer Role = "terminal-reviewer"
)

// Capability names a restricted ability an agent may exercise during an
// invocation. Tool availability is derived from the capability set.
type Capability string

const (
	// CapabilityWebSearch allows web search and page scraping tool calls.
	CapabilityWebSearch Capability = "web-search"
	// CapabilityRetrieval allows knowledge base retrieval tool calls.
	CapabilityRetrieval Capability = "retrieval"
	// CapabilityDrafting allows report drafting (write access to the shared
	// report state).
	CapabilityDrafting Capability = "drafting"
	// CapabilityReviewing allows reviewing / approval tool calls.
	CapabilityReviewing Capability = "reviewing"
)

// ModelRef holds the opaque model-connection parameters of an agent. The
// orchestrator passes these through to the backend adapter untouched.
type ModelRef struct {
	Provider string `json:"provider"` // "openai", "anthropic", "mock"
	Name     string `json:"name"`
	APIBase  string `json:"api_base,omitempty"` // OpenAI-compatible base URL (e.g. a local LM Studio server)
	APIKey   string `json:"api_key,omitempty"`
}

// RoleParams is the closed set of role-specific parameter blocks. Concrete
// types implement the unexported isRoleParams marker so capability-specific
// validation stays local to each block instead of a flat record of optionals.
type RoleParams interface{ isRoleParams() }

// BrowserParams configures a web-search capable agent.
type BrowserParams struct {
	Sites              []string      // site allowlist forwarded to the search provider
	MaxArticlesPerSite int           // fan-out bound for the scraping collaborator
	WaitTime           time.Duration // settle time between page fetches
	SearchAPIKey       string        // provider credential, unused by the free provider
}

// isRoleParams implements the RoleParams interface for BrowserParams.
func (BrowserParams) isRoleParams() {}

// RetrieverParams configures a retrieval capable agent.
type RetrieverParams struct {
	TokenizerEmbeddingModel string
	ChunkSize               int
	ChunkOverlap            int
	DocsFolder              string
}

// isRoleParams implements the RoleParams interface for RetrieverParams.
func (RetrieverParams) isRoleParams() {}

// AgentSpec is the immutable definition of one agent: identity, role,
// capability set, declared handoff targets and resource limits. Specs are
// shared read-only across sessions; never mutate one after registry load.
type AgentSpec struct {
	Name           string
	Role           Role
	Description    string
	SystemPrompt   string
	Capabilities   []Capability
	HandoffTargets []string // names of agents this one may hand off to
	SearchLimit    int      // max distinct searches per session (default applied at load)
	Timeout        time.Duration
	Verbose        bool
	Model          ModelRef
	Params         RoleParams // role-specific block, nil for plain workers
}

// HasCapability reports whether the agent declares the given capability.
func (s *AgentSpec) HasCapability(c Capability) bool {
	for _, have := range s.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// CanHandoffTo reports whether target is in the declared handoff set.
func (s *AgentSpec) CanHandoffTo(target string) bool {
	for _, t := range s.HandoffTargets {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the agent holds the terminal reviewer role.
func (s *AgentSpec) IsTerminal() bool { return s.Role == RoleReviewer }
