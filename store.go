package fluxus

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

const defaultStoreName = "fluxus"

// Store holds the state of an application and coordinates dispatch,
// reduction and listener notification.
//
// A Store is created with [New] or [CreateStore]. The only way to change its
// state is [Store.Dispatch], which runs the middleware chain and finally the
// root reducer. Listeners registered with [Store.Subscribe] run after every
// completed reduction.
//
// Store is safe for concurrent use. Reductions are serialized; listeners and
// middleware run outside the store's locks, so a listener may dispatch again
// and that dispatch runs immediately. Reducers must not dispatch.
type Store[S any] struct {
	name    string
	logger  *slog.Logger
	reducer Reducer[S]

	// reduceMu serializes reducer calls.
	reduceMu sync.Mutex

	mu      sync.RWMutex
	state   S
	version uint64

	listenerMu   sync.RWMutex
	listeners    map[uint64]func()
	nextListener uint64

	selectorMu sync.Mutex
	selectors  map[any]any

	dispatch Dispatch
}

// New creates a [Store] with the given root reducer, initial state and options.
//
// Middleware passed through [WithMiddleware] is composed once, here; the
// first middleware is the outermost link of the chain.
//
// Returns an error if reducer is nil, an option is invalid, or a middleware
// was built for a different state type.
//
// Example:
//
//	store, err := fluxus.New(reducer, Counter{},
//	    fluxus.WithLogger(logger),
//	    fluxus.WithMiddleware(fluxus.LoggingMiddleware[Counter](logger)),
//	)
func New[S any](reducer Reducer[S], initialState S, opts ...Option) (*Store[S], error) {
	if reducer == nil {
		return nil, ErrNilReducer
	}

	cfg := &storeConfig{name: defaultStoreName}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	middlewares := make([]Middleware[S], 0, len(cfg.middlewares))
	for i, raw := range cfg.middlewares {
		mw, ok := raw.(Middleware[S])
		if !ok {
			return nil, fmt.Errorf("middleware %d is %T, want %T", i, raw, Middleware[S](nil))
		}
		middlewares = append(middlewares, mw)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store[S]{
		name:      cfg.name,
		logger:    logger,
		reducer:   reducer,
		state:     initialState,
		listeners: make(map[uint64]func()),
		selectors: make(map[any]any),
	}
	s.dispatch = s.reduce
	if len(middlewares) > 0 {
		s.dispatch = compose(middlewares, s.api(), s.reduce)
	}

	return s, nil
}

// CreateStore creates a [Store] from a reducer, an initial state and an
// optional list of middleware.
//
// It is shorthand for New(reducer, initialState, WithMiddleware(middlewares...)).
func CreateStore[S any](reducer Reducer[S], initialState S, middlewares ...Middleware[S]) (*Store[S], error) {
	return New(reducer, initialState, WithMiddleware(middlewares...))
}

// Name returns the store name used in logs.
func (s *Store[S]) Name() string {
	return s.name
}

// GetState returns the current state.
func (s *Store[S]) GetState() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Version returns the number of completed reductions.
//
// Every dispatch that reaches the reducer and returns normally increments the
// version, whether or not the state changed.
func (s *Store[S]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Dispatch sends an action through the middleware chain to the reducer.
//
// When the action reaches the reducer, the state is replaced by the
// reducer's result and every listener is invoked. If the reducer panics,
// the panic propagates to the caller, the previous state is kept and no
// listener runs. Use [RecoveryMiddleware] to turn such panics into logs.
//
// Reducers built with [CreateReducer] return their initial state for
// [ActionInit], so dispatching ActionInit resets such a store.
func (s *Store[S]) Dispatch(action Action) {
	s.dispatch(action)
}

// Subscribe registers a listener called after every reduction.
//
// The returned function removes the listener. It is safe to call more than
// once. Listeners run in registration order; each call to Subscribe creates
// a separate registration, even for the same function.
func (s *Store[S]) Subscribe(listener func()) (unsubscribe func()) {
	if listener == nil {
		return func() {}
	}

	s.listenerMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = listener
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

// api returns the fixed API handed to middleware.
//
// Dispatch goes through the full chain, so middleware can emit new actions
// that are seen by every middleware again.
func (s *Store[S]) api() MiddlewareAPI[S] {
	return MiddlewareAPI[S]{
		GetState: s.GetState,
		Dispatch: func(action Action) { s.dispatch(action) },
	}
}

// reduce is the innermost dispatch: it applies the reducer and notifies
// listeners.
func (s *Store[S]) reduce(action Action) {
	version := s.apply(action)

	s.logger.Debug("action reduced",
		"store", s.name,
		"action", action.Type,
		"version", version,
	)

	s.notifyListeners()
}

// apply runs the reducer and swaps the state in. The assignment happens only
// after the reducer returns, so a panicking reducer leaves state untouched.
func (s *Store[S]) apply(action Action) uint64 {
	s.reduceMu.Lock()
	defer s.reduceMu.Unlock()

	next := s.reducer(s.GetState(), action)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
	s.version++
	return s.version
}

// notifyListeners calls the listeners registered when the reduction
// completed, outside any lock. A listener removed by an earlier listener in
// the same round is skipped.
func (s *Store[S]) notifyListeners() {
	s.listenerMu.RLock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	s.listenerMu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		s.listenerMu.RLock()
		l, ok := s.listeners[id]
		s.listenerMu.RUnlock()
		if ok {
			l()
		}
	}
}

// snapshot returns the current state with the version it belongs to.
func (s *Store[S]) snapshot() versioned[S] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return versioned[S]{version: s.version, state: s.state}
}

// versioned pairs a state with the reduction count that produced it.
type versioned[S any] struct {
	version uint64
	state   S
}
