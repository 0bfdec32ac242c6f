package fluxus

import (
	"sync"
	"time"
)

// LazyValue holds a value computed on first access.
type LazyValue[T any] struct {
	once  sync.Once
	fn    func() T
	value T
}

// Lazy defers fn until [LazyValue.Get] is first called.
func Lazy[T any](fn func() T) *LazyValue[T] {
	return &LazyValue[T]{fn: fn}
}

// Get returns the value, computing it on the first call only.
func (l *LazyValue[T]) Get() T {
	l.once.Do(func() {
		l.value = l.fn()
		l.fn = nil
	})
	return l.value
}

// MeasureTime runs fn and returns its result with the wall-clock time it took.
func MeasureTime[T any](fn func() T) (T, time.Duration) {
	start := time.Now()
	result := fn()
	return result, time.Since(start)
}

// Milliseconds converts d to fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
