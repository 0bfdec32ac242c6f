package fluxus

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
)

// Dispatch sends an action into a store's dispatch chain.
type Dispatch func(action Action)

// MiddlewareAPI is the fixed view of a store handed to middleware.
//
// GetState returns the store's current state. Dispatch sends an action
// through the whole chain again, starting at the outermost middleware.
type MiddlewareAPI[S any] struct {
	GetState func() S
	Dispatch Dispatch
}

// Middleware wraps a dispatch function to add cross-cutting behavior such as
// logging, recovery or asynchronous actions.
//
// A middleware receives the store API once, when the chain is built, and
// returns a function that wraps the next link of the chain. Call next to pass
// the action on; skip it to swallow the action.
//
// Example:
//
//	func audit[S any](api fluxus.MiddlewareAPI[S]) func(fluxus.Dispatch) fluxus.Dispatch {
//	    return func(next fluxus.Dispatch) fluxus.Dispatch {
//	        return func(a fluxus.Action) {
//	            log.Println("before", a.Type)
//	            next(a)
//	        }
//	    }
//	}
type Middleware[S any] func(api MiddlewareAPI[S]) func(next Dispatch) Dispatch

// ApplyMiddleware wraps the store's dispatch with additional middleware and
// returns the resulting dispatch function.
//
// Middlewares transform the store's dispatch in right-to-left order, so the
// first middleware in the list runs first. The store itself is not modified:
// its own Dispatch keeps its original chain, and the middleware API's
// Dispatch still enters that original chain.
func ApplyMiddleware[S any](middlewares []Middleware[S], store *Store[S]) Dispatch {
	return compose(middlewares, store.api(), store.Dispatch)
}

// compose folds middlewares around terminal from right to left.
func compose[S any](middlewares []Middleware[S], api MiddlewareAPI[S], terminal Dispatch) Dispatch {
	chain := make([]func(Dispatch) Dispatch, len(middlewares))
	for i, mw := range middlewares {
		chain[i] = mw(api)
	}

	next := terminal
	for i := len(chain) - 1; i >= 0; i-- {
		next = chain[i](next)
	}
	return next
}

// LoggingMiddleware logs every action passing through the chain together
// with the time the rest of the chain took to handle it.
//
// Actions are logged at debug level. If logger is nil, [slog.Default] is used.
func LoggingMiddleware[S any](logger *slog.Logger) Middleware[S] {
	if logger == nil {
		logger = slog.Default()
	}

	return func(api MiddlewareAPI[S]) func(Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(action Action) {
				logger.Debug("dispatching action", "action", action.Type, "has_payload", action.HasPayload())

				_, elapsed := MeasureTime(func() struct{} {
					next(action)
					return struct{}{}
				})

				logger.Debug("action handled",
					"action", action.Type,
					"duration_ms", Milliseconds(elapsed),
				)
			}
		}
	}
}

// RecoveryMiddleware recovers panics raised further down the chain, most
// often by a reducer, and logs them instead of crashing the caller.
//
// Each recovered panic is logged at error level with a correlation ID and the
// stack trace. The state is left as it was before the action and listeners
// are not notified. If logger is nil, [slog.Default] is used.
//
// Place RecoveryMiddleware first so it wraps every other middleware.
func RecoveryMiddleware[S any](logger *slog.Logger) Middleware[S] {
	if logger == nil {
		logger = slog.Default()
	}

	return func(api MiddlewareAPI[S]) func(Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(action Action) {
				defer func() {
					if r := recover(); r != nil {
						correlationID := uuid.NewString()
						logger.Error("dispatch panic",
							"correlation_id", correlationID,
							"action", action.Type,
							"panic", fmt.Sprintf("%v", r),
							"stack", string(debug.Stack()),
						)
					}
				}()
				next(action)
			}
		}
	}
}

// Thunk is an action payload that is run by [ThunkMiddleware] instead of
// being reduced.
//
// A thunk may dispatch any number of actions, synchronously or later from
// another goroutine.
type Thunk[S any] func(dispatch Dispatch, getState func() S)

// ThunkMiddleware runs actions whose payload is a [Thunk] and forwards every
// other action unchanged.
//
// The thunk receives the store API's dispatch, so actions it emits travel the
// whole chain.
func ThunkMiddleware[S any]() Middleware[S] {
	return func(api MiddlewareAPI[S]) func(Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(action Action) {
				if thunk, ok := action.Payload.(Thunk[S]); ok {
					thunk(api.Dispatch, api.GetState)
					return
				}
				next(action)
			}
		}
	}
}

// ThunkAction wraps a thunk in an action with the given type.
func ThunkAction[S any](actionType string, thunk Thunk[S]) Action {
	return Action{Type: actionType, Payload: thunk}
}
