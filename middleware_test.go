package fluxus

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// tagMiddleware appends name to trace on the way in and on the way out.
func tagMiddleware(name string, trace *[]string) Middleware[counterState] {
	return func(api MiddlewareAPI[counterState]) func(Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(a Action) {
				*trace = append(*trace, name+">")
				next(a)
				*trace = append(*trace, "<"+name)
			}
		}
	}
}

func TestWithMiddleware_FirstIsOutermost(t *testing.T) {
	var trace []string
	store := newCounterStore(t, WithMiddleware(
		tagMiddleware("a", &trace),
		tagMiddleware("b", &trace),
		tagMiddleware("c", &trace),
	))

	store.Dispatch(incrementAction.Empty())

	want := "a> b> c> <c <b <a"
	if got := strings.Join(trace, " "); got != want {
		t.Errorf("trace = %q, want %q", got, want)
	}
	if got := store.GetState().Count; got != 1 {
		t.Errorf("GetState().Count = %d, want 1", got)
	}
}

func TestWithMiddleware_NilRejected(t *testing.T) {
	_, err := New(counterReducer(), counterState{}, WithMiddleware[counterState](nil))
	if err == nil {
		t.Error("New() expected error for nil middleware, got nil")
	}
}

func TestWithMiddleware_WrongStateType(t *testing.T) {
	_, err := New(counterReducer(), counterState{}, WithMiddleware(ThunkMiddleware[string]()))
	if err == nil {
		t.Fatal("New() expected error for mismatched middleware state type, got nil")
	}
	if !strings.Contains(err.Error(), "middleware 0") {
		t.Errorf("error = %v, want mention of middleware 0", err)
	}
}

func TestMiddleware_CanSwallowActions(t *testing.T) {
	block := func(api MiddlewareAPI[counterState]) func(Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(a Action) {
				if a.Type == "INCREMENT" {
					return
				}
				next(a)
			}
		}
	}
	store := newCounterStore(t, WithMiddleware[counterState](block))

	calls := 0
	store.Subscribe(func() { calls++ })

	store.Dispatch(incrementAction.Empty())
	store.Dispatch(addAction.With(2))

	if got := store.GetState().Count; got != 2 {
		t.Errorf("GetState().Count = %d, want 2", got)
	}
	if calls != 1 {
		t.Errorf("listener calls = %d, want 1", calls)
	}
}

func TestMiddleware_APIDispatchEntersWholeChain(t *testing.T) {
	var trace []string
	double := func(api MiddlewareAPI[counterState]) func(Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(a Action) {
				if a.Type == "DOUBLE" {
					api.Dispatch(addAction.With(api.GetState().Count))
					return
				}
				next(a)
			}
		}
	}

	store := newCounterStore(t, WithMiddleware(tagMiddleware("outer", &trace), double))
	store.Dispatch(addAction.With(3))
	trace = nil

	store.Dispatch(Action{Type: "DOUBLE"})

	if got := store.GetState().Count; got != 6 {
		t.Errorf("GetState().Count = %d, want 6", got)
	}
	// outer sees DOUBLE and then the ADD emitted through the API
	want := "outer> outer> <outer <outer"
	if got := strings.Join(trace, " "); got != want {
		t.Errorf("trace = %q, want %q", got, want)
	}
}

func TestApplyMiddleware(t *testing.T) {
	var trace []string
	store := newCounterStore(t)

	dispatch := ApplyMiddleware([]Middleware[counterState]{
		tagMiddleware("x", &trace),
		tagMiddleware("y", &trace),
	}, store)

	dispatch(incrementAction.Empty())

	if got := strings.Join(trace, " "); got != "x> y> <y <x" {
		t.Errorf("trace = %q, want %q", got, "x> y> <y <x")
	}
	if got := store.GetState().Count; got != 1 {
		t.Errorf("GetState().Count = %d, want 1", got)
	}

	// the store's own dispatch is unchanged
	trace = nil
	store.Dispatch(incrementAction.Empty())
	if len(trace) != 0 {
		t.Errorf("store.Dispatch ran applied middleware: %v", trace)
	}
}

func TestApplyMiddleware_Empty(t *testing.T) {
	store := newCounterStore(t)

	dispatch := ApplyMiddleware(nil, store)
	dispatch(addAction.With(5))

	if got := store.GetState().Count; got != 5 {
		t.Errorf("GetState().Count = %d, want 5", got)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := newCounterStore(t, WithMiddleware(LoggingMiddleware[counterState](logger)))
	store.Dispatch(addAction.With(1))

	out := buf.String()
	for _, phrase := range []string{"dispatching action", "action=ADD", "action handled", "duration_ms="} {
		if !strings.Contains(out, phrase) {
			t.Errorf("log output missing %q\nGot: %s", phrase, out)
		}
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	reducer := CreateReducer(counterState{}, HandlerMap[counterState]{
		"BOOM": func(counterState, Action) counterState { panic("kaboom") },
		"INCREMENT": func(s counterState, _ Action) counterState {
			return counterState{Count: s.Count + 1}
		},
	})
	store, err := New(reducer, counterState{},
		WithLogger(testLogger()),
		WithMiddleware(RecoveryMiddleware[counterState](logger)),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	calls := 0
	store.Subscribe(func() { calls++ })

	store.Dispatch(Action{Type: "BOOM"}) // must not panic

	if calls != 0 {
		t.Errorf("listener calls = %d, want 0", calls)
	}
	if store.Version() != 0 {
		t.Errorf("Version() = %d, want 0", store.Version())
	}

	out := buf.String()
	for _, phrase := range []string{"dispatch panic", "correlation_id=", "kaboom", "action=BOOM"} {
		if !strings.Contains(out, phrase) {
			t.Errorf("log output missing %q\nGot: %s", phrase, out)
		}
	}

	store.Dispatch(incrementAction.Empty())
	if got := store.GetState().Count; got != 1 {
		t.Errorf("GetState().Count = %d, want 1", got)
	}
}

func TestThunkMiddleware(t *testing.T) {
	store := newCounterStore(t, WithMiddleware(ThunkMiddleware[counterState]()))

	var seenBefore int
	store.Dispatch(ThunkAction("counter/addTwice", func(dispatch Dispatch, getState func() counterState) {
		seenBefore = getState().Count
		dispatch(addAction.With(2))
		dispatch(addAction.With(2))
	}))

	if seenBefore != 0 {
		t.Errorf("thunk saw Count = %d, want 0", seenBefore)
	}
	if got := store.GetState().Count; got != 4 {
		t.Errorf("GetState().Count = %d, want 4", got)
	}
	if store.Version() != 2 {
		t.Errorf("Version() = %d, want 2 (thunk action itself is not reduced)", store.Version())
	}
}

func TestThunkMiddleware_ForwardsPlainActions(t *testing.T) {
	store := newCounterStore(t, WithMiddleware(ThunkMiddleware[counterState]()))

	store.Dispatch(incrementAction.Empty())

	if got := store.GetState().Count; got != 1 {
		t.Errorf("GetState().Count = %d, want 1", got)
	}
}
