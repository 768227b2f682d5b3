package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentSpec_HasCapability(t *testing.T) {
	spec := &AgentSpec{
		Name:         "browser",
		Capabilities: []Capability{CapabilityWebSearch},
	}

	assert.True(t, spec.HasCapability(CapabilityWebSearch))
	assert.False(t, spec.HasCapability(CapabilityDrafting))
}

func TestAgentSpec_CanHandoffTo(t *testing.T) {
	spec := &AgentSpec{
		Name:           "root",
		HandoffTargets: []string{"browser", "write"},
	}

	assert.True(t, spec.CanHandoffTo("browser"))
	assert.True(t, spec.CanHandoffTo("write"))
	assert.False(t, spec.CanHandoffTo("review"))
	assert.False(t, spec.CanHandoffTo(""))
}

func TestAgentSpec_IsTerminal(t *testing.T) {
	assert.True(t, (&AgentSpec{Role: RoleReviewer}).IsTerminal())
	assert.False(t, (&AgentSpec{Role: RoleManager}).IsTerminal())
	assert.False(t, (&AgentSpec{Role: RoleWorker}).IsTerminal())
}

func TestHandoffDecision_HasTarget(t *testing.T) {
	assert.False(t, HandoffDecision{Output: "done"}.HasTarget())
	assert.True(t, HandoffDecision{Target: "write"}.HasTarget())
}
