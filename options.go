package fluxus

import (
	"errors"
	"log/slog"
)

// storeConfig holds mutable state during Store construction.
type storeConfig struct {
	name        string
	logger      *slog.Logger
	middlewares []any
}

// Option is a function that configures a [Store] during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails, which [New] reports to the caller.
//
// Built-in options: [WithMiddleware], [WithLogger], [WithName].
type Option func(*storeConfig) error

// WithMiddleware appends middleware to the store's dispatch chain.
//
// Middleware runs in the order given: the first middleware is the outermost
// link and sees every action first. Can be used multiple times; later calls
// append further inside the chain.
//
// The state type of the middleware must match the store's state type,
// otherwise [New] returns an error.
//
// Example:
//
//	store, err := fluxus.New(reducer, Counter{},
//	    fluxus.WithMiddleware(
//	        fluxus.RecoveryMiddleware[Counter](logger),
//	        fluxus.LoggingMiddleware[Counter](logger),
//	    ),
//	)
func WithMiddleware[S any](middlewares ...Middleware[S]) Option {
	return func(cfg *storeConfig) error {
		for _, mw := range middlewares {
			if mw == nil {
				return errors.New("middleware cannot be nil")
			}
			cfg.middlewares = append(cfg.middlewares, mw)
		}
		return nil
	}
}

// WithLogger sets the [slog.Logger] used for dispatch logging.
//
// If not specified, [slog.Default] is used. Returns an error if the logger
// is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *storeConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithName sets the store name reported in log attributes.
//
// Defaults to "fluxus". Returns an error if the name is empty.
func WithName(name string) Option {
	return func(cfg *storeConfig) error {
		if name == "" {
			return errors.New("store name cannot be empty")
		}
		cfg.name = name
		return nil
	}
}
