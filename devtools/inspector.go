package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/fluxus"
	"github.com/jpalmerr/fluxus/dashboard"
	"github.com/jpalmerr/fluxus/internal/history"
	"github.com/jpalmerr/fluxus/internal/server"
)

const (
	defaultPort         = 8080
	defaultHistoryLimit = 1000
)

// ErrNotAttached is returned when an action is dispatched through the
// inspector before its middleware is part of a store.
var ErrNotAttached = errors.New("inspector middleware is not attached to a store")

// ErrInvalidAction marks actions rejected by a [Decoder]. Requests failing
// with it are answered with 400 Bad Request.
var ErrInvalidAction = server.ErrInvalidAction

// Entry is one recorded action.
type Entry = history.Entry

// Inspector records the dispatch history of one store and serves it over
// HTTP.
//
// An Inspector belongs to a single store: pass [Inspector.Middleware] to
// exactly one [fluxus.New] call.
type Inspector[S any] struct {
	port     int
	title    string
	logger   *slog.Logger
	decoder  Decoder
	recorder *history.MemoryRecorder

	mu     sync.RWMutex
	api    *fluxus.MiddlewareAPI[S]
	server *server.Server
}

// New creates an [Inspector] for stores with state type S.
//
// Returns an error if any option is invalid.
func New[S any](opts ...Option) (*Inspector[S], error) {
	cfg := &inspectorConfig{
		port:         defaultPort,
		historyLimit: defaultHistoryLimit,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Inspector[S]{
		port:     cfg.port,
		title:    cfg.title,
		logger:   logger,
		decoder:  cfg.decoder,
		recorder: history.NewMemoryRecorder(cfg.historyLimit),
	}, nil
}

// Middleware returns the recording middleware.
//
// Every action that reaches this middleware is recorded after the rest of the
// chain returns, with the state at that point. Actions swallowed by
// middleware placed after the inspector are recorded too, with an unchanged
// state; place the inspector last to record only what reaches the reducer.
// A panic further down the chain is recorded as a failed entry and then
// re-raised.
func (in *Inspector[S]) Middleware() fluxus.Middleware[S] {
	return func(api fluxus.MiddlewareAPI[S]) func(fluxus.Dispatch) fluxus.Dispatch {
		in.mu.Lock()
		in.api = &api
		in.mu.Unlock()

		return func(next fluxus.Dispatch) fluxus.Dispatch {
			return func(action fluxus.Action) {
				start := time.Now()
				defer func() {
					if r := recover(); r != nil {
						msg := fmt.Sprintf("%v", r)
						in.recorder.Record(Entry{
							Type:       action.Type,
							Payload:    recordablePayload(action.Payload),
							DurationMs: fluxus.Milliseconds(time.Since(start)),
							Error:      &msg,
						})
						panic(r)
					}
				}()

				next(action)

				in.recorder.Record(Entry{
					Type:       action.Type,
					Payload:    recordablePayload(action.Payload),
					State:      api.GetState(),
					DurationMs: fluxus.Milliseconds(time.Since(start)),
				})
			}
		}
	}
}

// Entries returns the retained history in recording order.
func (in *Inspector[S]) Entries() []Entry {
	return in.recorder.GetAll()
}

// Handler returns the HTTP handler serving the inspector page and API.
func (in *Inspector[S]) Handler() http.Handler {
	return in.newServer().Handler()
}

// Start begins serving the inspector in the background.
//
// Start returns once the port is bound. The server shuts down gracefully
// when ctx is cancelled. Returns an error if the port cannot be bound.
func (in *Inspector[S]) Start(ctx context.Context) error {
	srv := in.newServer()
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start inspector: %w", err)
	}

	in.mu.Lock()
	in.server = srv
	in.mu.Unlock()

	in.logger.Info("inspector available", "url", fmt.Sprintf("http://localhost:%d", srv.Port()))
	return nil
}

// Port returns the bound port once started, or the configured port before.
func (in *Inspector[S]) Port() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if in.server != nil {
		return in.server.Port()
	}
	return in.port
}

func (in *Inspector[S]) newServer() *server.Server {
	return server.NewServer(in.recorder, storeSource[S]{in: in}, in.port, dashboard.Assets, in.title, in.logger)
}

func (in *Inspector[S]) attached() (*fluxus.MiddlewareAPI[S], bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.api, in.api != nil
}

// storeSource adapts an Inspector to server.StateSource.
type storeSource[S any] struct {
	in *Inspector[S]
}

func (s storeSource[S]) State() any {
	api, ok := s.in.attached()
	if !ok {
		return nil
	}
	return api.GetState()
}

func (s storeSource[S]) Dispatch(actionType string, payload any) (err error) {
	api, ok := s.in.attached()
	if !ok {
		return ErrNotAttached
	}

	action := fluxus.Action{Type: actionType, Payload: payload}
	if s.in.decoder != nil {
		action, err = s.in.decoder(action)
		if err != nil {
			if errors.Is(err, ErrInvalidAction) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.in.logger.Error("devtools dispatch panic",
				"correlation_id", correlationID,
				"action", action.Type,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("dispatch %s failed (correlation_id=%s): %v", action.Type, correlationID, r)
		}
	}()

	api.Dispatch(action)
	return nil
}

// recordablePayload keeps payloads that encode as JSON and replaces others,
// such as thunks, with their Go type name.
func recordablePayload(payload any) any {
	if payload == nil {
		return nil
	}
	if _, err := json.Marshal(payload); err != nil {
		return fmt.Sprintf("%T", payload)
	}
	return payload
}

// ConvertPayload converts a decoded JSON payload into P by re-encoding it.
//
// Example:
//
//	n, err := devtools.ConvertPayload[int](action.Payload) // 3.0 -> 3
func ConvertPayload[P any](payload any) (P, error) {
	var out P
	data, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("%w: encode payload: %v", ErrInvalidAction, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: payload is not %T: %v", ErrInvalidAction, out, err)
	}
	return out, nil
}
