package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// validateCmd validates a script without dispatching it.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a script",
	Long: `Validate a fluxus script without dispatching any action.

This command parses the YAML, expands environment variables, and validates
all handlers, selectors and actions. It's useful for CI/CD pipelines.

Exit codes:
  0 - Script is valid
  1 - Script is invalid (error details printed to stderr)

Example:
  fluxus validate -c counter.yaml
  fluxus validate --config scripts/todos.yaml --env-file .env`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addScriptFlags(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := loadScript(cmd)
	if err != nil {
		return fmt.Errorf("invalid script: %w", err)
	}

	middleware := "none"
	if len(s.Middleware) > 0 {
		middleware = strings.Join(s.Middleware, ", ")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Script is valid!\n")
	fmt.Fprintf(out, "  Name:       %s\n", s.Name)
	fmt.Fprintf(out, "  Handlers:   %d (%s)\n", len(s.Handlers), strings.Join(s.HandlerTypes(), ", "))
	fmt.Fprintf(out, "  Selectors:  %d\n", len(s.Selectors))
	fmt.Fprintf(out, "  Middleware: %s\n", middleware)
	fmt.Fprintf(out, "  Actions:    %d\n", len(s.Actions))

	return nil
}
