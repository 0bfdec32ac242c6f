package devtools

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jpalmerr/fluxus"
)

// Decoder converts an action received over HTTP into the action dispatched
// to the store. Returning an error rejects the request with 400 Bad Request.
type Decoder func(action fluxus.Action) (fluxus.Action, error)

// inspectorConfig holds mutable state during Inspector construction.
type inspectorConfig struct {
	port         int
	title        string
	logger       *slog.Logger
	decoder      Decoder
	historyLimit int
}

// Option configures an [Inspector] during construction.
type Option func(*inspectorConfig) error

// WithPort sets the HTTP port of the inspector.
//
// Defaults to 8080. Port 0 binds a free port; use [Inspector.Port] after
// [Inspector.Start] to find it. Returns an error outside 0-65535.
func WithPort(port int) Option {
	return func(cfg *inspectorConfig) error {
		if port < 0 || port > 65535 {
			return fmt.Errorf("port must be between 0 and 65535, got %d", port)
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the title shown on the inspector page.
func WithTitle(title string) Option {
	return func(cfg *inspectorConfig) error {
		if title == "" {
			return errors.New("title cannot be empty")
		}
		cfg.title = title
		return nil
	}
}

// WithLogger sets the logger for server and dispatch events.
// Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *inspectorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithDecoder sets the function that converts actions posted to
// /api/dispatch before they are dispatched.
//
// Example:
//
//	devtools.WithDecoder(func(a fluxus.Action) (fluxus.Action, error) {
//	    if a.Type != addAction.Type() {
//	        return a, nil
//	    }
//	    n, err := devtools.ConvertPayload[int](a.Payload)
//	    return addAction.With(n), err
//	})
func WithDecoder(decoder Decoder) Option {
	return func(cfg *inspectorConfig) error {
		if decoder == nil {
			return errors.New("decoder cannot be nil")
		}
		cfg.decoder = decoder
		return nil
	}
}

// WithHistoryLimit bounds the number of retained entries. Older entries are
// dropped first. Defaults to 1000; 0 keeps every entry.
func WithHistoryLimit(limit int) Option {
	return func(cfg *inspectorConfig) error {
		if limit < 0 {
			return fmt.Errorf("history limit must be non-negative, got %d", limit)
		}
		cfg.historyLimit = limit
		return nil
	}
}
