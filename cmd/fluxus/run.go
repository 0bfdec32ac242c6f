package main

import (
	"encoding/json"
	"fmt"

	"github.com/jpalmerr/fluxus"
	"github.com/jpalmerr/fluxus/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// runResult is the printed outcome of a script run.
type runResult struct {
	Name      string          `json:"name" yaml:"name"`
	Actions   int             `json:"actions" yaml:"actions"`
	State     config.Document `json:"state" yaml:"state"`
	Selectors map[string]any  `json:"selectors,omitempty" yaml:"selectors,omitempty"`
}

// runCmd dispatches a script and prints the final state.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Dispatch a script and print the final state",
	Long: `Build a store from a script, dispatch its actions in order and print
the final state together with every selector value.

The run stops at the first action whose handler fails, unless the script
enables the "recover" middleware, which logs the failure and continues.

Example:
  fluxus run -c counter.yaml
  fluxus run -c counter.yaml -o yaml --env-file .env`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addScriptFlags(runCmd)
	runCmd.Flags().StringP("output", "o", "json", "output format: json or yaml")
}

func runRun(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output != "json" && output != "yaml" {
		return fmt.Errorf("unknown output format %q (expected json or yaml)", output)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose)

	s, err := loadScript(cmd)
	if err != nil {
		return err
	}

	store, err := buildStore(s, logger)
	if err != nil {
		return err
	}

	dispatchErr, elapsed := fluxus.MeasureTime(func() error {
		return dispatchScript(store, s)
	})
	if dispatchErr != nil {
		return dispatchErr
	}

	logger.Info("script completed",
		"script", s.Name,
		"actions", len(s.Actions),
		"version", store.Version(),
		"elapsed_ms", fluxus.Milliseconds(elapsed),
	)

	result := runResult{
		Name:    s.Name,
		Actions: len(s.Actions),
		State:   store.GetState(),
	}
	selectors := config.BuildSelectors(s)
	if len(selectors) > 0 {
		result.Selectors = make(map[string]any, len(selectors))
		for name, sel := range selectors {
			result.Selectors[name] = fluxus.Select(store, sel)
		}
	}

	return writeResult(cmd, output, result)
}

func writeResult(cmd *cobra.Command, format string, result runResult) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "yaml":
		data, err = yaml.Marshal(result)
	default:
		data, err = json.MarshalIndent(result, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
