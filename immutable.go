package fluxus

import "fmt"

// UpdateObject returns a new map with the keys of obj, where values present
// in updates replace the original ones.
//
// Keys that appear only in updates are ignored: the result has exactly the
// keys of obj. Neither input is modified.
//
// Example:
//
//	next := fluxus.UpdateObject(map[string]int{"a": 1, "b": 2}, map[string]int{"b": 20})
//	// next == map[string]int{"a": 1, "b": 20}
func UpdateObject[K comparable, V any](obj, updates map[K]V) map[K]V {
	result := make(map[K]V, len(obj))
	for k, v := range obj {
		if u, ok := updates[k]; ok {
			result[k] = u
			continue
		}
		result[k] = v
	}
	return result
}

// UpdateStruct returns a shallow copy of *obj with patch applied to the copy.
//
// The original value is left untouched. A nil obj yields a patched zero value.
func UpdateStruct[T any](obj *T, patch func(*T)) *T {
	var cp T
	if obj != nil {
		cp = *obj
	}
	if patch != nil {
		patch(&cp)
	}
	return &cp
}

// UpdateArray returns a copy of s with the element at index replaced by value.
//
// Returns an error wrapping [ErrIndexOutOfBounds] if index is outside
// [0, len(s)).
func UpdateArray[T any](s []T, index int, value T) ([]T, error) {
	if index < 0 || index >= len(s) {
		return nil, fmt.Errorf("update index %d with length %d: %w", index, len(s), ErrIndexOutOfBounds)
	}

	result := make([]T, len(s))
	copy(result, s)
	result[index] = value
	return result, nil
}
