// Package config loads the agent topology and search settings from a YAML
// file and converts them into runtime specs.
package config

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/quota"
	"github.com/hupe1980/agentrelay/registry"
	"github.com/hupe1980/agentrelay/router"
	"github.com/hupe1980/agentrelay/websearch"
)

// Config is the root configuration document.
type Config struct {
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Search       SearchConfig       `mapstructure:"search"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Agents       []AgentConfig      `mapstructure:"agents"`
}

// OrchestratorConfig tunes the orchestration loop.
type OrchestratorConfig struct {
	// MaxHops caps handoffs per session.
	MaxHops int `mapstructure:"max_hops"`
}

// SearchConfig carries the web search settings shared by browsing agents.
type SearchConfig struct {
	// Timeout bounds one search request, in seconds.
	Timeout int `mapstructure:"timeout"`
	// WaitTime is the pause between engine requests, in seconds.
	WaitTime int `mapstructure:"wait_time"`
	// MaxArticlesPerSite caps hits collected per restricted site.
	MaxArticlesPerSite int             `mapstructure:"max_articles_per_site"`
	Web                WebSearchConfig `mapstructure:"web"`
}

// WebSearchConfig restricts searches to specific domains.
type WebSearchConfig struct {
	Sites []string `mapstructure:"sites"`
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// AgentConfig declares one agent of the topology.
type AgentConfig struct {
	Name         string   `mapstructure:"name"`
	Description  string   `mapstructure:"description"`
	SystemPrompt string   `mapstructure:"system_prompt"`
	Manager      bool     `mapstructure:"manager"`
	Role         string   `mapstructure:"role"` // overrides the manager flag when set
	Capabilities []string `mapstructure:"capabilities"`
	CanHandoffTo []string `mapstructure:"can_handoff_to"`
	SearchLimit  int      `mapstructure:"search_limit"`
	Timeout      int      `mapstructure:"timeout"` // seconds
	Verbose      bool     `mapstructure:"verbose"`

	Model    string `mapstructure:"model"`
	Provider string `mapstructure:"provider"` // openai or anthropic
	APIBase  string `mapstructure:"api_base"` // OpenAI-compatible local servers
	APIKey   string `mapstructure:"api_key"`

	// Retrieval settings, meaningful for agents with the retrieval capability.
	TokenizerEmbeddingModel string `mapstructure:"tokenizer_embedding_model"`
	ChunkSize               int    `mapstructure:"chunk_size"`
	ChunkOverlap            int    `mapstructure:"chunk_overlap"`
	DocsFolder              string `mapstructure:"docs_folder"`
}

// DefaultConfig returns the baseline configuration applied before the file
// is read.
func DefaultConfig() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{MaxHops: router.DefaultMaxHops},
		Search: SearchConfig{
			Timeout:            15,
			WaitTime:           1,
			MaxArticlesPerSite: 2,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// SearchSettings converts the search section into websearch settings.
func (c *Config) SearchSettings() websearch.Settings {
	return websearch.Settings{
		Timeout:            time.Duration(c.Search.Timeout) * time.Second,
		WaitTime:           time.Duration(c.Search.WaitTime) * time.Second,
		Sites:              c.Search.Web.Sites,
		MaxArticlesPerSite: c.Search.MaxArticlesPerSite,
	}
}

// Specs converts the agent declarations into runtime specs. Structural
// validation (dangling targets, manager count) happens in the registry, not
// here.
func (c *Config) Specs() ([]*core.AgentSpec, error) {
	specs := make([]*core.AgentSpec, 0, len(c.Agents))

	for _, a := range c.Agents {
		role, err := a.role()
		if err != nil {
			return nil, err
		}

		spec := &core.AgentSpec{
			Name:           a.Name,
			Role:           role,
			Description:    a.Description,
			SystemPrompt:   a.SystemPrompt,
			HandoffTargets: a.CanHandoffTo,
			SearchLimit:    a.SearchLimit,
			Timeout:        time.Duration(a.Timeout) * time.Second,
			Verbose:        a.Verbose,
			Model: core.ModelRef{
				Provider: a.Provider,
				Name:     a.Model,
				APIBase:  a.APIBase,
				APIKey:   a.APIKey,
			},
		}

		if spec.SearchLimit <= 0 {
			spec.SearchLimit = quota.DefaultSearchLimit
		}

		for _, capability := range a.Capabilities {
			spec.Capabilities = append(spec.Capabilities, core.Capability(capability))
		}

		switch {
		case spec.HasCapability(core.CapabilityRetrieval):
			spec.Params = core.RetrieverParams{
				TokenizerEmbeddingModel: a.TokenizerEmbeddingModel,
				ChunkSize:               a.ChunkSize,
				ChunkOverlap:            a.ChunkOverlap,
				DocsFolder:              a.DocsFolder,
			}
		case spec.HasCapability(core.CapabilityWebSearch):
			spec.Params = core.BrowserParams{
				Sites:              c.Search.Web.Sites,
				MaxArticlesPerSite: c.Search.MaxArticlesPerSite,
				WaitTime:           time.Duration(c.Search.WaitTime) * time.Second,
			}
		}

		specs = append(specs, spec)
	}

	return specs, nil
}

// Registry builds the validated agent registry from the configuration.
func (c *Config) Registry() (*registry.Registry, error) {
	specs, err := c.Specs()
	if err != nil {
		return nil, err
	}
	return registry.New(specs...)
}

func (a AgentConfig) role() (core.Role, error) {
	if a.Role == "" {
		if a.Manager {
			return core.RoleManager, nil
		}
		return core.RoleWorker, nil
	}

	switch core.Role(a.Role) {
	case core.RoleManager, core.RoleWorker, core.RoleReviewer:
		return core.Role(a.Role), nil
	default:
		return "", fmt.Errorf("agent %q: unknown role %q", a.Name, a.Role)
	}
}
