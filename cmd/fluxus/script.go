package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jpalmerr/fluxus"
	"github.com/jpalmerr/fluxus/config"
	"github.com/spf13/cobra"
)

// addScriptFlags registers the flags shared by commands that load a script.
func addScriptFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to script file (required)")
	cmd.Flags().String("env-file", "", "dotenv file loaded before the script is parsed")
	cmd.Flags().BoolP("verbose", "v", false, "log every dispatched action")
	_ = cmd.MarkFlagRequired("config")
}

// newLogger creates a JSON logger for CLI use.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadScript loads the env file, if any, and then the script named by the
// command's flags.
func loadScript(cmd *cobra.Command) (*config.Script, error) {
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	}

	scriptFile, _ := cmd.Flags().GetString("config")
	s, err := config.Load(scriptFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load script: %w", err)
	}
	return s, nil
}

// buildStore creates the store described by a script. Extra middleware is
// placed inside the script's middleware.
func buildStore(s *config.Script, logger *slog.Logger, extra ...fluxus.Middleware[config.Document]) (*fluxus.Store[config.Document], error) {
	reducer, err := config.BuildReducer(s)
	if err != nil {
		return nil, fmt.Errorf("failed to build reducer: %w", err)
	}

	middlewares, err := config.BuildMiddleware(s, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build middleware: %w", err)
	}
	middlewares = append(middlewares, extra...)

	return fluxus.New(reducer, s.InitialState,
		fluxus.WithName(s.Name),
		fluxus.WithLogger(logger),
		fluxus.WithMiddleware(middlewares...),
	)
}

// dispatchScript dispatches every scripted action in order.
//
// A panic while handling an action stops the script and is returned as an
// error naming the action.
func dispatchScript(store *fluxus.Store[config.Document], s *config.Script) error {
	for i, a := range s.Actions {
		if err := dispatchSafe(store, fluxus.Action{Type: a.Type, Payload: a.Payload}); err != nil {
			return fmt.Errorf("actions[%d] (%s): %w", i, a.Type, err)
		}
	}
	return nil
}

func dispatchSafe(store *fluxus.Store[config.Document], action fluxus.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch failed: %v", r)
		}
	}()
	store.Dispatch(action)
	return nil
}
