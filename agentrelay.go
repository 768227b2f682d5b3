// Package agentrelay provides a high-level façade over the orchestration
// services (registry, executor, router, session store) enabling rapid
// construction of handoff-driven multi-agent pipelines. Most applications
// interact with this package by:
//  1. Loading a Config (or building AgentSpecs programmatically)
//  2. Creating an AgentRelay via New() (optionally overriding defaults)
//  3. Submitting tasks and inspecting the returned Result and transcript
//
// The façade wires each agent's model backend and capability tools from its
// spec, then delegates the orchestration loop to orchestrator.Orchestrator.
// All defaults are safe for local development and testing.
package agentrelay

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentrelay/config"
	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/executor"
	"github.com/hupe1980/agentrelay/logging"
	"github.com/hupe1980/agentrelay/model"
	"github.com/hupe1980/agentrelay/model/anthropic"
	"github.com/hupe1980/agentrelay/model/openai"
	"github.com/hupe1980/agentrelay/orchestrator"
	"github.com/hupe1980/agentrelay/quota"
	"github.com/hupe1980/agentrelay/registry"
	"github.com/hupe1980/agentrelay/retrieval"
	"github.com/hupe1980/agentrelay/router"
	"github.com/hupe1980/agentrelay/session"
	"github.com/hupe1980/agentrelay/tool"
	"github.com/hupe1980/agentrelay/websearch"
)

// ModelFactory builds a model backend for an agent spec. Overridable so
// tests can substitute mocks.
type ModelFactory func(spec *core.AgentSpec) (model.Model, error)

// Options configures the AgentRelay instance.
type Options struct {
	// MaxHops caps handoffs per session.
	MaxHops int
	// SessionStore persists sessions (defaults to in-memory).
	SessionStore core.SessionStore
	// SearchProvider serves web searches (defaults to DuckDuckGo).
	SearchProvider websearch.Provider
	// Fetcher downloads top search hits for the browsing agent.
	Fetcher websearch.Fetcher
	// Index serves document retrieval (defaults to an in-memory index
	// loaded from the retriever agent's docs folder).
	Index retrieval.Index
	// ModelFactory builds per-agent model backends.
	ModelFactory ModelFactory
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// AgentRelay is the high-level façade aggregating the orchestration services.
type AgentRelay struct {
	reg  *registry.Registry
	orch *orchestrator.Orchestrator
	opts Options
}

// New wires an AgentRelay from a loaded configuration. Any unset service is
// initialized with a local default.
func New(cfg *config.Config, optFns ...func(o *Options)) (*AgentRelay, error) {
	opts := Options{
		MaxHops:      cfg.Orchestrator.MaxHops,
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.ModelFactory == nil {
		opts.ModelFactory = defaultModelFactory
	}

	if opts.SearchProvider == nil {
		opts.SearchProvider = websearch.NewDuckDuckGo(cfg.SearchSettings())
	}

	if opts.Fetcher == nil {
		opts.Fetcher = websearch.NewHTTPFetcher()
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	for _, issue := range reg.ValidateGraph() {
		opts.Logger.Warn("agent graph issue", "agent", issue.Agent, "message", issue.Message)
	}

	exec := executor.New(func(o *executor.Options) {
		o.Tracker = quota.NewTracker(opts.Logger)
		o.Logger = opts.Logger
	})

	for _, name := range reg.Names() {
		spec, err := reg.Resolve(name)
		if err != nil {
			return nil, err
		}

		m, err := opts.ModelFactory(spec)
		if err != nil {
			return nil, fmt.Errorf("build model for agent %q: %w", spec.Name, err)
		}

		tools, err := buildTools(spec, &opts)
		if err != nil {
			return nil, err
		}

		exec.Register(spec.Name, m, tools...)
	}

	rtr := router.New(reg, func(o *router.Options) {
		o.MaxHops = opts.MaxHops
		o.Logger = opts.Logger
	})

	orch := orchestrator.New(reg, exec, rtr, func(o *orchestrator.Options) {
		o.Store = opts.SessionStore
		o.Logger = opts.Logger
	})

	return &AgentRelay{reg: reg, orch: orch, opts: opts}, nil
}

// Submit runs a task through the agent graph and returns the final result.
func (r *AgentRelay) Submit(ctx context.Context, task string) (core.Result, error) {
	return r.orch.Submit(ctx, task)
}

// Cancel aborts an in-flight session by id.
func (r *AgentRelay) Cancel(sessionID string) bool {
	return r.orch.Cancel(sessionID)
}

// Registry exposes the validated agent registry.
func (r *AgentRelay) Registry() *registry.Registry {
	return r.reg
}

// buildTools grants an agent the tools matching its declared capabilities,
// plus the handoff tool whenever it has outgoing targets.
func buildTools(spec *core.AgentSpec, opts *Options) ([]tool.Tool, error) {
	var tools []tool.Tool

	if len(spec.HandoffTargets) > 0 {
		tools = append(tools, tool.NewHandoffTool(spec.HandoffTargets))
	}

	if spec.HasCapability(core.CapabilityWebSearch) {
		tools = append(tools, tool.NewSearchTool(opts.SearchProvider, func(o *tool.SearchToolOptions) {
			o.Fetcher = opts.Fetcher
		}))
	}

	if spec.HasCapability(core.CapabilityRetrieval) {
		idx := opts.Index
		if idx == nil {
			built, err := buildIndex(spec)
			if err != nil {
				return nil, err
			}
			idx = built
			opts.Index = built
		}
		tools = append(tools, tool.NewRetrieveTool(idx))
	}

	if spec.HasCapability(core.CapabilityReviewing) {
		tools = append(tools, tool.NewReviewTool())
	}

	return tools, nil
}

// buildIndex loads the retriever agent's docs folder into an in-memory index
// chunked with the configured tokenizer.
func buildIndex(spec *core.AgentSpec) (retrieval.Index, error) {
	params, ok := spec.Params.(core.RetrieverParams)
	if !ok {
		return retrieval.NewInMemoryIndex(), nil
	}

	idx := retrieval.NewInMemoryIndex()
	if params.DocsFolder == "" {
		return idx, nil
	}

	tok, err := retrieval.NewTiktokenTokenizer(params.TokenizerEmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", spec.Name, err)
	}

	chunker := retrieval.NewChunker(tok, params.ChunkSize, params.ChunkOverlap)
	if _, err := retrieval.LoadDir(idx, chunker, params.DocsFolder); err != nil {
		return nil, fmt.Errorf("agent %q: load docs: %w", spec.Name, err)
	}

	return idx, nil
}

// defaultModelFactory selects the provider adapter from the spec's model
// reference. Unknown providers default to the OpenAI-compatible adapter,
// which also covers local servers via api_base.
func defaultModelFactory(spec *core.AgentSpec) (model.Model, error) {
	switch spec.Model.Provider {
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if spec.Model.Name != "" {
				o.Model = sdk.Model(spec.Model.Name)
			}
			o.APIKey = spec.Model.APIKey
		}), nil
	default:
		return openai.NewModel(func(o *openai.Options) {
			if spec.Model.Name != "" {
				o.Model = spec.Model.Name
			}
			o.BaseURL = spec.Model.APIBase
			o.APIKey = spec.Model.APIKey
		}), nil
	}
}
