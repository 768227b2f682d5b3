package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentrelay"
	"github.com/hupe1980/agentrelay/config"
	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/logging"
)

var showTranscript bool

var runCmd = &cobra.Command{
	Use:   "run [task]",
	Short: "Submit a task to the agent graph",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewLoader(configPath).Load()
		if err != nil {
			return err
		}

		logger := logging.NewSlogLogger(
			logging.ParseLevel(cfg.Logging.Level),
			cfg.Logging.Format,
			os.Stderr,
		)

		relay, err := agentrelay.New(cfg, func(o *agentrelay.Options) {
			o.Logger = logger
		})
		if err != nil {
			return err
		}

		task := strings.Join(args, " ")

		result, err := relay.Submit(cmd.Context(), task)
		if err != nil {
			return err
		}

		fmt.Printf("status: %s\n", result.Status)
		if result.Status == core.StatusApproved {
			fmt.Printf("\n%s\n", result.Output)
		} else {
			fmt.Printf("reason: %s\n", result.Reason)
		}

		if showTranscript {
			fmt.Println("\ntranscript:")
			for _, e := range result.Transcript {
				printEntry(e)
			}
		}

		if result.Status != core.StatusApproved {
			os.Exit(1)
		}

		return nil
	},
}

func printEntry(e core.Entry) {
	switch e.Kind {
	case core.EntryHandoff:
		fmt.Printf("  [%s] %s -> %s\n", e.Kind, e.Agent, e.Target)
	case core.EntryToolCall:
		fmt.Printf("  [%s] %s: %s\n", e.Kind, e.Agent, e.Tool)
	case core.EntryToolDenied:
		fmt.Printf("  [%s] %s: %s (%s)\n", e.Kind, e.Agent, e.Tool, e.Reason)
	case core.EntryTimeout, core.EntryError:
		fmt.Printf("  [%s] %s: %s\n", e.Kind, e.Agent, e.Reason)
	default:
		fmt.Printf("  [%s] %s\n", e.Kind, e.Agent)
	}
}

func init() {
	runCmd.Flags().BoolVar(&showTranscript, "transcript", false, "Print the session transcript after completion")
}
