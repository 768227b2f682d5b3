package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "agentrelay",
	Short: "Handoff-driven multi-agent task orchestrator",
	Long: `AgentRelay routes a task through a configured graph of agents with
restricted capabilities (web search, document retrieval, drafting,
reviewing) until a terminal reviewer approves the result.

Agents, their models, handoff targets and search quotas are declared in a
YAML configuration file.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "agentrelay.yaml", "Path to the configuration file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
