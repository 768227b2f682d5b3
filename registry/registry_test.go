package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentrelay/core"
)

func specFixture() []*core.AgentSpec {
	return []*core.AgentSpec{
		{
			Name:           "root",
			Role:           core.RoleManager,
			HandoffTargets: []string{"browser", "retriever"},
		},
		{
			Name:           "browser",
			Role:           core.RoleWorker,
			Capabilities:   []core.Capability{core.CapabilityWebSearch},
			HandoffTargets: []string{"write"},
		},
		{
			Name:           "retriever",
			Role:           core.RoleWorker,
			Capabilities:   []core.Capability{core.CapabilityRetrieval},
			HandoffTargets: []string{"write"},
		},
		{
			Name:           "write",
			Role:           core.RoleWorker,
			Capabilities:   []core.Capability{core.CapabilityDrafting},
			HandoffTargets: []string{"review"},
		},
		{
			Name:           "review",
			Role:           core.RoleReviewer,
			Capabilities:   []core.Capability{core.CapabilityReviewing},
			HandoffTargets: []string{"write"},
		},
	}
}

func TestNew_ValidGraph(t *testing.T) {
	reg, err := New(specFixture()...)
	require.NoError(t, err)

	assert.Equal(t, "root", reg.Entry().Name)
	assert.Len(t, reg.Names(), 5)

	spec, err := reg.Resolve("write")
	require.NoError(t, err)
	assert.Equal(t, "write", spec.Name)
}

func TestNew_AppliesDefaults(t *testing.T) {
	reg, err := New(specFixture()...)
	require.NoError(t, err)

	spec, err := reg.Resolve("browser")
	require.NoError(t, err)
	assert.Equal(t, 2, spec.SearchLimit)
	assert.Equal(t, 120*time.Second, spec.Timeout)
}

func TestNew_KeepsExplicitSettings(t *testing.T) {
	specs := specFixture()
	specs[1].SearchLimit = 5
	specs[1].Timeout = 30 * time.Second

	reg, err := New(specs...)
	require.NoError(t, err)

	spec, err := reg.Resolve("browser")
	require.NoError(t, err)
	assert.Equal(t, 5, spec.SearchLimit)
	assert.Equal(t, 30*time.Second, spec.Timeout)
}

func TestNew_UndefinedHandoffTarget(t *testing.T) {
	specs := specFixture()
	specs[3].HandoffTargets = []string{"review", "ghost"}

	_, err := New(specs...)
	require.Error(t, err)

	var cfgErr *core.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Issues[0], "ghost")
}

func TestNew_DuplicateName(t *testing.T) {
	specs := append(specFixture(), &core.AgentSpec{Name: "write", Role: core.RoleWorker})

	_, err := New(specs...)
	require.Error(t, err)

	var cfgErr *core.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Issues[0], "duplicate")
}

func TestNew_ManagerCount(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		specs := specFixture()
		specs[0].Role = core.RoleWorker

		_, err := New(specs...)
		var cfgErr *core.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Issues[0], "no agent marked as manager")
	})

	t.Run("duplicated", func(t *testing.T) {
		specs := specFixture()
		specs[1].Role = core.RoleManager

		_, err := New(specs...)
		var cfgErr *core.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Issues[0], "multiple agents marked as manager")
	})
}

func TestResolve_Unknown(t *testing.T) {
	reg, err := New(specFixture()...)
	require.NoError(t, err)

	_, err = reg.Resolve("ghost")
	require.ErrorIs(t, err, core.ErrAgentNotFound)
}

func TestValidateGraph_Clean(t *testing.T) {
	specs := specFixture()
	specs[4].HandoffTargets = nil

	reg, err := New(specs...)
	require.NoError(t, err)

	assert.Empty(t, reg.ValidateGraph())
}

func TestValidateGraph_UnreachableAgent(t *testing.T) {
	specs := append(specFixture(), &core.AgentSpec{Name: "orphan", Role: core.RoleWorker})
	specs[4].HandoffTargets = nil

	reg, err := New(specs...)
	require.NoError(t, err)

	issues := reg.ValidateGraph()
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
	assert.Equal(t, "orphan", issues[0].Agent)
	assert.Contains(t, issues[0].Message, "unreachable")
}

func TestValidateGraph_NoTerminalReviewer(t *testing.T) {
	specs := specFixture()
	specs[4].Role = core.RoleWorker

	reg, err := New(specs...)
	require.NoError(t, err)

	issues := reg.ValidateGraph()
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "never be approved")
}

func TestValidateGraph_ReviewerWithHandoffs(t *testing.T) {
	reg, err := New(specFixture()...)
	require.NoError(t, err)

	issues := reg.ValidateGraph()
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
	assert.Equal(t, "review", issues[0].Agent)
	assert.Contains(t, issues[0].Message, "outgoing handoff targets")
}
