// Package main is the entry point for the fluxus CLI.
//
// The CLI runs YAML scripts against a fluxus store: a script declares the
// initial state, the handlers reducing each action type, selectors and the
// actions to dispatch.
//
// Usage:
//
//	fluxus run -c script.yaml       # Dispatch the script and print the result
//	fluxus serve -c script.yaml     # Dispatch the script and serve the inspector
//	fluxus validate -c script.yaml  # Validate a script
//	fluxus version                  # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "fluxus",
	Short: "Run scripts against a fluxus store",
	Long: `Fluxus is a small unidirectional state container.

This CLI builds a store from a YAML script, dispatches the scripted
actions and prints the resulting state, or serves a live inspector.

Quick start:
  1. Create a script (counter.yaml)
  2. Run: fluxus run -c counter.yaml
  3. Or:  fluxus serve -c counter.yaml --open

Example script:
  name: counter
  initial_state:
    count: 0
  handlers:
    ADD: add:count
  actions:
    - type: ADD
      payload: 2`,
	SilenceUsage: true,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this fluxus binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "fluxus %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
