package fluxus

import "errors"

// ErrIndexOutOfBounds is returned by [UpdateArray] when the index is outside
// the slice.
var ErrIndexOutOfBounds = errors.New("index out of bounds")

// ErrNilReducer is returned by [New] when no reducer is given.
var ErrNilReducer = errors.New("reducer cannot be nil")
