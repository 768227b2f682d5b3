package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentrelay/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and agent graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewLoader(configPath).Load()
		if err != nil {
			return err
		}

		reg, err := cfg.Registry()
		if err != nil {
			return err
		}

		fmt.Printf("entry agent: %s\n", reg.Entry().Name)
		fmt.Printf("agents: %d\n", len(reg.Names()))

		issues := reg.ValidateGraph()
		if len(issues) == 0 {
			fmt.Println("graph: ok")
			return nil
		}

		for _, issue := range issues {
			fmt.Println(issue.String())
		}

		return nil
	},
}
