package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/fluxus/config"
	"github.com/jpalmerr/fluxus/devtools"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

// serveCmd dispatches a script and serves the devtools inspector.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Dispatch a script and serve the inspector",
	Long: `Build a store from a script, dispatch its actions and serve the
devtools inspector for it.

The inspector shows every recorded action with the resulting state and
accepts new actions from the browser. The server runs until interrupted
(Ctrl+C) or receives SIGTERM.

Example:
  fluxus serve -c counter.yaml
  fluxus serve -c counter.yaml --port 9000 --open`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addScriptFlags(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "inspector HTTP port")
	serveCmd.Flags().Bool("open", false, "open the inspector in the default browser")
}

func runServe(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose)

	s, err := loadScript(cmd)
	if err != nil {
		return err
	}

	port, _ := cmd.Flags().GetInt("port")
	inspector, err := devtools.New[config.Document](
		devtools.WithPort(port),
		devtools.WithTitle(s.Name),
		devtools.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create inspector: %w", err)
	}

	// innermost so the inspector records what reaches the reducer
	store, err := buildStore(s, logger, inspector.Middleware())
	if err != nil {
		return err
	}

	if err := dispatchScript(store, s); err != nil {
		return err
	}
	logger.Info("script dispatched", "script", s.Name, "actions", len(s.Actions))

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := inspector.Start(ctx); err != nil {
		return err
	}

	if open, _ := cmd.Flags().GetBool("open"); open {
		url := fmt.Sprintf("http://localhost:%d", inspector.Port())
		if err := browser.OpenURL(url); err != nil {
			logger.Warn("failed to open browser", "url", url, "error", err)
		}
	}

	<-ctx.Done()
	logger.Info("shutdown complete")
	return nil
}
