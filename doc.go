// Package fluxus provides a small unidirectional state container: a store
// holding a single state value, reducers computing the next state from an
// action, middleware wrapping dispatch, and memoized selectors.
//
// Fluxus uses generics for the state type and keeps the moving parts to a
// minimum. State only changes through [Store.Dispatch]; every change is
// computed by a pure [Reducer] and announced to listeners.
//
// # Quick Start
//
//	type Counter struct{ Count int }
//
//	increment := fluxus.CreateAction[int]("counter/add")
//
//	reducer := fluxus.CreateReducer(Counter{}, fluxus.HandlerMap[Counter]{
//	    increment.Type(): func(s Counter, a fluxus.Action) Counter {
//	        n, _ := increment.Match(a)
//	        return Counter{Count: s.Count + n}
//	    },
//	})
//
//	store, _ := fluxus.New(reducer, Counter{})
//	unsubscribe := store.Subscribe(func() { fmt.Println(store.GetState().Count) })
//	defer unsubscribe()
//
//	store.Dispatch(increment.With(2)) // prints 2
//
// # Middleware
//
// Middleware wraps dispatch. The first middleware given is the outermost:
//
//	store, err := fluxus.New(reducer, Counter{},
//	    fluxus.WithLogger(logger),
//	    fluxus.WithMiddleware(
//	        fluxus.RecoveryMiddleware[Counter](logger),
//	        fluxus.ThunkMiddleware[Counter](),
//	        fluxus.LoggingMiddleware[Counter](logger),
//	    ),
//	)
//
// Built-in middleware: [LoggingMiddleware], [RecoveryMiddleware] and
// [ThunkMiddleware].
//
// # Selectors
//
// Selectors are handles around derivation functions. [Select] memoizes
// results per store and state version:
//
//	var selectDouble = fluxus.NewSelector(func(s Counter) int { return s.Count * 2 })
//
//	v := fluxus.Select(store, selectDouble)
//
// # Helpers
//
//   - [Memoize], [MemoizeBy]: single-argument result caches
//   - [UpdateObject], [UpdateStruct], [UpdateArray]: copy-with-change helpers
//   - [Lazy]: a value computed on first use
//   - [MeasureTime]: wall-clock timing of a function
//
// # Related Packages
//
//   - config: YAML scripts describing a document store, used by the CLI
//   - devtools: an HTTP inspector recording the dispatch history of a store
//   - cmd/fluxus: the command line runner for scripts
package fluxus
