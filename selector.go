package fluxus

// Selector derives a value of type R from state S.
//
// A Selector is a stable handle around a function: stores key their memo
// cache by the handle, so create selectors once (typically as package
// variables) and reuse them.
type Selector[S, R any] struct {
	fn func(S) R
}

// NewSelector wraps fn in a [Selector] handle.
//
// Example:
//
//	var selectCount = fluxus.NewSelector(func(s Counter) int { return s.Count })
//
//	n := fluxus.Select(store, selectCount)
func NewSelector[S, R any](fn func(S) R) *Selector[S, R] {
	return &Selector[S, R]{fn: fn}
}

// Apply runs the selector function directly, without memoization.
func (sel *Selector[S, R]) Apply(state S) R {
	return sel.fn(state)
}

// Select applies a selector to the store's current state, with memoization.
//
// The first Select for a selector creates a memoized wrapper held by the
// store for its lifetime. The wrapper caches one result per state version,
// so repeated calls between dispatches run the selector once, and a new
// dispatch always yields a fresh result. Neither the per-store selector
// cache nor the per-selector results are ever evicted.
func Select[S, R any](store *Store[S], sel *Selector[S, R]) R {
	snap := store.snapshot()

	store.selectorMu.Lock()
	wrapper, ok := store.selectors[sel]
	if !ok {
		wrapper = MemoizeBy(
			func(v versioned[S]) R { return sel.fn(v.state) },
			func(v versioned[S]) uint64 { return v.version },
		)
		store.selectors[sel] = wrapper
	}
	store.selectorMu.Unlock()

	return wrapper.(func(versioned[S]) R)(snap)
}
