package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/jpalmerr/fluxus"
)

// tombstone is returned by an update function to delete the targeted key.
type tombstone struct{}

// updateFunc computes the new value at a path from the old one.
type updateFunc func(old any, exists bool) (any, error)

// BuildReducer converts a script's handlers into a root reducer.
//
// Every handler becomes an entry of a [fluxus.HandlerMap]. Updates are
// copy-on-write along the handler's path: the maps and slices on the path are
// copied, everything else is shared with the previous state.
//
// A handler that cannot apply its action, for example "add" with a string
// payload, panics with a descriptive error. Use the "recover" middleware to
// log such failures instead.
func BuildReducer(s *Script) (fluxus.Reducer[Document], error) {
	handlers := make(fluxus.HandlerMap[Document], len(s.Handlers))
	for _, actionType := range s.HandlerTypes() {
		hc := s.Handlers[actionType]
		if err := validateHandler(&hc); err != nil {
			return nil, fmt.Errorf("handlers[%s]: %w", actionType, err)
		}
		handlers[actionType] = buildHandler(hc, s.InitialState)
	}
	return fluxus.CreateReducer(s.InitialState, handlers), nil
}

// buildHandler converts a single HandlerConfig into a reducer function.
func buildHandler(hc HandlerConfig, initial Document) func(Document, fluxus.Action) Document {
	if hc.Op == OpReset {
		return func(Document, fluxus.Action) Document {
			return initial
		}
	}

	path := splitPath(hc.Path)
	return func(state Document, action fluxus.Action) Document {
		arg := action.Payload
		if hc.HasValue {
			arg = hc.Value
		}

		next, err := updateIn(state, true, path, opFunc(hc.Op, arg))
		if err != nil {
			panic(fmt.Errorf("%s %s on %s: %w", hc.Op, hc.Path, action.Type, err))
		}
		doc, _ := next.(Document)
		return doc
	}
}

// opFunc returns the update applied at the end of a handler's path.
func opFunc(op string, arg any) updateFunc {
	switch op {
	case OpSet:
		return func(any, bool) (any, error) {
			return arg, nil
		}

	case OpAdd:
		return func(old any, exists bool) (any, error) {
			if !exists || old == nil {
				old = 0
			}
			return addNumbers(old, arg)
		}

	case OpDelete:
		return func(any, bool) (any, error) {
			return tombstone{}, nil
		}

	case OpAppend:
		return func(old any, exists bool) (any, error) {
			if !exists || old == nil {
				return []any{arg}, nil
			}
			list, ok := old.([]any)
			if !ok {
				return nil, fmt.Errorf("cannot append to %T", old)
			}
			out := make([]any, len(list), len(list)+1)
			copy(out, list)
			return append(out, arg), nil
		}

	case OpSetIndex:
		return func(old any, exists bool) (any, error) {
			list, ok := old.([]any)
			if !exists || !ok {
				return nil, fmt.Errorf("set_index needs a list, got %T", old)
			}
			change, ok := arg.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("set_index payload must be {index, value}, got %T", arg)
			}
			index, ok := toInt(change["index"])
			if !ok {
				return nil, fmt.Errorf("set_index index must be an integer, got %v", change["index"])
			}
			return fluxus.UpdateArray(list, index, change["value"])
		}

	case OpMerge:
		return func(old any, exists bool) (any, error) {
			patch, ok := arg.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("merge payload must be a mapping, got %T", arg)
			}
			base := map[string]any{}
			if exists && old != nil {
				if base, ok = old.(map[string]any); !ok {
					return nil, fmt.Errorf("cannot merge into %T", old)
				}
			}
			// existing keys first, then keys new to the target
			merged := fluxus.UpdateObject(base, patch)
			for k, v := range patch {
				if _, ok := merged[k]; !ok {
					merged[k] = v
				}
			}
			return merged, nil
		}
	}

	return func(any, bool) (any, error) {
		return nil, fmt.Errorf("unknown op %q", op)
	}
}

// updateIn applies fn at path below node and returns the updated copy of
// node. Missing maps along the path are created.
func updateIn(node any, exists bool, path []string, fn updateFunc) (any, error) {
	if len(path) == 0 {
		return fn(node, exists)
	}
	key, rest := path[0], path[1:]

	switch n := node.(type) {
	case nil:
		child, err := updateIn(nil, false, rest, fn)
		if err != nil {
			return nil, err
		}
		if isTombstone(child) {
			return map[string]any{}, nil
		}
		return map[string]any{key: child}, nil

	case map[string]any:
		old, ok := n[key]
		child, err := updateIn(old, ok, rest, fn)
		if err != nil {
			return nil, err
		}
		return setKey(n, key, child), nil

	case []any:
		index, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("list index %q is not a number", key)
		}
		if index < 0 || index >= len(n) {
			return nil, fmt.Errorf("list index %d: %w", index, fluxus.ErrIndexOutOfBounds)
		}
		child, err := updateIn(n[index], true, rest, fn)
		if err != nil {
			return nil, err
		}
		if isTombstone(child) {
			return nil, errors.New("cannot delete a list element")
		}
		return fluxus.UpdateArray(n, index, child)

	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", node, key)
	}
}

// setKey returns a copy of m with key set to v, or without key when v is a
// tombstone.
func setKey(m map[string]any, key string, v any) map[string]any {
	if isTombstone(v) {
		out := maps.Clone(m)
		delete(out, key)
		return out
	}
	if _, ok := m[key]; ok {
		return fluxus.UpdateObject(m, map[string]any{key: v})
	}
	out := make(map[string]any, len(m)+1)
	maps.Copy(out, m)
	out[key] = v
	return out
}

// Lookup returns the value at a dotted path in doc.
func Lookup(doc Document, path string) (any, bool) {
	var node any = doc
	for _, seg := range splitPath(path) {
		switch n := node.(type) {
		case map[string]any:
			v, ok := n[seg]
			if !ok {
				return nil, false
			}
			node = v
		case []any:
			index, err := strconv.Atoi(seg)
			if err != nil || index < 0 || index >= len(n) {
				return nil, false
			}
			node = n[index]
		default:
			return nil, false
		}
	}
	return node, true
}

// BuildMiddleware converts the script's middleware names into middleware,
// in the order listed.
func BuildMiddleware(s *Script, logger *slog.Logger) ([]fluxus.Middleware[Document], error) {
	middlewares := make([]fluxus.Middleware[Document], 0, len(s.Middleware))
	for i, name := range s.Middleware {
		switch name {
		case MiddlewareRecover:
			middlewares = append(middlewares, fluxus.RecoveryMiddleware[Document](logger))
		case MiddlewareLogger:
			middlewares = append(middlewares, fluxus.LoggingMiddleware[Document](logger))
		case MiddlewareThunk:
			middlewares = append(middlewares, fluxus.ThunkMiddleware[Document]())
		default:
			return nil, fmt.Errorf("middleware[%d]: unknown middleware %q", i, name)
		}
	}
	return middlewares, nil
}

// BuildSelectors converts the script's selectors into selector handles keyed
// by name. A selector yields nil when its path is missing.
func BuildSelectors(s *Script) map[string]*fluxus.Selector[Document, any] {
	selectors := make(map[string]*fluxus.Selector[Document, any], len(s.Selectors))
	for name, path := range s.Selectors {
		path := path
		selectors[name] = fluxus.NewSelector(func(doc Document) any {
			v, _ := Lookup(doc, path)
			return v
		})
	}
	return selectors
}

func isTombstone(v any) bool {
	_, ok := v.(tombstone)
	return ok
}

func splitPath(path string) []string {
	return strings.Split(strings.TrimSpace(path), ".")
}

// addNumbers adds two numbers, keeping integers when both are integral.
func addNumbers(a, b any) (any, error) {
	ai, aInt := toInt64(a)
	bi, bInt := toInt64(b)
	if aInt && bInt {
		return int(ai + bi), nil
	}

	af, ok := toFloat(a)
	if !ok {
		return nil, fmt.Errorf("current value %v (%T) is not a number", a, a)
	}
	bf, ok := toFloat(b)
	if !ok {
		return nil, fmt.Errorf("amount %v (%T) is not a number", b, b)
	}
	return af + bf, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	if n, ok := toInt64(v); ok {
		return int(n), true
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if n, ok := toInt64(v); ok {
		return float64(n), true
	}
	return 0, false
}
