package fluxus

import "sync"

// Memoize returns a version of fn that caches its result per argument.
//
// The first call with a given argument runs fn; later calls with an equal
// argument return the cached result. The cache is never evicted, so memoize
// only functions whose argument space is small or bounded by the caller.
//
// The returned function is safe for concurrent use. Concurrent first calls
// with the same argument may each run fn; the first stored result wins.
//
// The argument is used as a map key, so its dynamic type must be comparable:
// Memoize[any, R] panics when called with a slice, map or func. Use
// [MemoizeBy] with a key function for such arguments.
func Memoize[T comparable, R any](fn func(T) R) func(T) R {
	return MemoizeBy(fn, func(arg T) T { return arg })
}

// MemoizeBy is like [Memoize] for arguments that are not comparable.
//
// key derives the cache key from the argument. Two arguments with the same
// key are treated as the same argument.
func MemoizeBy[T any, K comparable, R any](fn func(T) R, key func(T) K) func(T) R {
	var mu sync.Mutex
	cache := make(map[K]R)

	return func(arg T) R {
		k := key(arg)

		mu.Lock()
		if r, ok := cache[k]; ok {
			mu.Unlock()
			return r
		}
		mu.Unlock()

		// run fn outside the lock so a re-entrant call cannot deadlock
		result := fn(arg)

		mu.Lock()
		defer mu.Unlock()
		if r, ok := cache[k]; ok {
			return r
		}
		cache[k] = result
		return result
	}
}
