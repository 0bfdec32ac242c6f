package config

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/jpalmerr/fluxus"
)

func mustParse(t *testing.T, yaml string) *Script {
	t.Helper()
	s, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return s
}

func mustReducer(t *testing.T, s *Script) fluxus.Reducer[Document] {
	t.Helper()
	r, err := BuildReducer(s)
	if err != nil {
		t.Fatalf("BuildReducer() error = %v", err)
	}
	return r
}

const todoScript = `
initial_state:
  count: 0
  user:
    name: ada
  todos:
    - {title: write, done: false}
handlers:
  INCREMENT: {op: add, path: count, value: 1}
  ADD: add:count
  RENAME: set:user.name
  FORGET: delete:user.name
  PUSH: append:todos
  TOGGLE: set_index:todos
  DONE: {op: set, path: todos.0.done, value: true}
  PATCH_USER: merge:user
  NEW_SECTION: {op: set, path: settings.theme, value: dark}
  RESET: reset
`

func TestBuildReducer_Operations(t *testing.T) {
	s := mustParse(t, todoScript)
	reducer := mustReducer(t, s)
	initial := s.InitialState

	tests := []struct {
		name   string
		action fluxus.Action
		path   string
		want   any
	}{
		{"add with configured value", fluxus.Action{Type: "INCREMENT"}, "count", 1},
		{"add with payload", fluxus.Action{Type: "ADD", Payload: 5}, "count", 5},
		{"add with float payload", fluxus.Action{Type: "ADD", Payload: 2.5}, "count", 2.5},
		{"set nested key", fluxus.Action{Type: "RENAME", Payload: "grace"}, "user.name", "grace"},
		{"set list element field", fluxus.Action{Type: "DONE"}, "todos.0.done", true},
		{"set creates missing maps", fluxus.Action{Type: "NEW_SECTION"}, "settings.theme", "dark"},
		{"merge adds and replaces keys", fluxus.Action{Type: "PATCH_USER", Payload: map[string]any{"name": "alan", "age": 41}}, "user.age", 41},
		{
			"set_index replaces element",
			fluxus.Action{Type: "TOGGLE", Payload: map[string]any{"index": 0.0, "value": "done"}},
			"todos.0", "done",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := reducer(initial, tt.action)

			got, ok := Lookup(next, tt.path)
			if !ok {
				t.Fatalf("Lookup(%q) missing in %v", tt.path, next)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Lookup(%q) = %#v, want %#v", tt.path, got, tt.want)
			}
		})
	}
}

func TestBuildReducer_CopyOnWrite(t *testing.T) {
	s := mustParse(t, todoScript)
	reducer := mustReducer(t, s)
	initial := s.InitialState

	next := reducer(initial, fluxus.Action{Type: "RENAME", Payload: "grace"})
	next = reducer(next, fluxus.Action{Type: "PUSH", Payload: "read"})

	if name, _ := Lookup(initial, "user.name"); name != "ada" {
		t.Errorf("initial user.name = %v, want ada", name)
	}
	if todos, _ := initial["todos"].([]any); len(todos) != 1 {
		t.Errorf("initial todos = %v, want 1 element", initial["todos"])
	}
	if todos, _ := next["todos"].([]any); len(todos) != 2 || todos[1] != "read" {
		t.Errorf("next todos = %v, want 2 elements ending in read", next["todos"])
	}

	// the appended list is a new slice
	if reflect.ValueOf(next["todos"]).Pointer() == reflect.ValueOf(initial["todos"]).Pointer() {
		t.Error("appended list should be a new slice")
	}
}

func TestBuildReducer_DeleteAndReset(t *testing.T) {
	s := mustParse(t, todoScript)
	reducer := mustReducer(t, s)

	next := reducer(s.InitialState, fluxus.Action{Type: "FORGET"})
	if _, ok := Lookup(next, "user.name"); ok {
		t.Error("user.name should be deleted")
	}
	if _, ok := Lookup(s.InitialState, "user.name"); !ok {
		t.Error("initial user.name should be kept")
	}

	next = reducer(next, fluxus.Action{Type: "INCREMENT"})
	next = reducer(next, fluxus.Action{Type: "RESET"})
	if !reflect.DeepEqual(next, s.InitialState) {
		t.Errorf("after RESET state = %v, want %v", next, s.InitialState)
	}
}

func TestBuildReducer_UnknownActionIsIdentity(t *testing.T) {
	s := mustParse(t, todoScript)
	reducer := mustReducer(t, s)

	next := reducer(s.InitialState, fluxus.Action{Type: "UNKNOWN"})
	if reflect.ValueOf(next).Pointer() != reflect.ValueOf(s.InitialState).Pointer() {
		t.Error("unknown action should return the same document")
	}
}

func TestBuildReducer_InitAction(t *testing.T) {
	s := mustParse(t, todoScript)
	reducer := mustReducer(t, s)

	got := fluxus.InitialState(reducer)
	if !reflect.DeepEqual(got, s.InitialState) {
		t.Errorf("InitialState() = %v, want %v", got, s.InitialState)
	}
}

func TestBuildReducer_InvalidActionsPanic(t *testing.T) {
	s := mustParse(t, todoScript)
	reducer := mustReducer(t, s)

	tests := []struct {
		name    string
		action  fluxus.Action
		wantErr string
	}{
		{"add string payload", fluxus.Action{Type: "ADD", Payload: "two"}, "not a number"},
		{"add to string", fluxus.Action{Type: "ADD", Payload: 1}, "not a number"},
		{"set_index out of range", fluxus.Action{Type: "TOGGLE", Payload: map[string]any{"index": 3, "value": 1}}, "out of bounds"},
		{"set_index bad payload", fluxus.Action{Type: "TOGGLE", Payload: 3}, "{index, value}"},
		{"merge non-map", fluxus.Action{Type: "PATCH_USER", Payload: "x"}, "must be a mapping"},
		{"append to non-list", fluxus.Action{Type: "PUSH", Payload: 1}, "cannot append"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := s.InitialState
			switch tt.name {
			case "add to string":
				state = Document{"count": "many"}
			case "append to non-list":
				state = Document{"todos": "none"}
			}

			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("reducer should panic")
				}
				err, ok := r.(error)
				if !ok {
					t.Fatalf("panic value = %T, want error", r)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("panic = %v, want it to contain %q", err, tt.wantErr)
				}
			}()
			reducer(state, tt.action)
		})
	}
}

func TestBuildReducer_IndexErrorWrapsSentinel(t *testing.T) {
	s := mustParse(t, todoScript)
	reducer := mustReducer(t, s)

	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, fluxus.ErrIndexOutOfBounds) {
			t.Errorf("panic = %v, want ErrIndexOutOfBounds", err)
		}
	}()
	reducer(s.InitialState, fluxus.Action{Type: "TOGGLE", Payload: map[string]any{"index": -1, "value": 1}})
}

func TestBuildReducer_InvalidHandler(t *testing.T) {
	s := &Script{
		InitialState: Document{},
		Handlers:     map[string]HandlerConfig{"X": {Op: "explode", Path: "count"}},
	}
	if _, err := BuildReducer(s); err == nil {
		t.Error("BuildReducer() expected error for unknown op, got nil")
	}
}

func TestBuildMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := mustParse(t, `
middleware: [recover, logger, thunk]
initial_state:
  count: 0
handlers:
  ADD: add:count
`)
	middlewares, err := BuildMiddleware(s, logger)
	if err != nil {
		t.Fatalf("BuildMiddleware() error = %v", err)
	}
	if len(middlewares) != 3 {
		t.Fatalf("len(middlewares) = %d, want 3", len(middlewares))
	}

	store, err := fluxus.New(mustReducer(t, s), s.InitialState,
		fluxus.WithLogger(logger),
		fluxus.WithMiddleware(middlewares...),
	)
	if err != nil {
		t.Fatalf("fluxus.New() error = %v", err)
	}

	// recovered by the recover middleware
	store.Dispatch(fluxus.Action{Type: "ADD", Payload: "oops"})
	store.Dispatch(fluxus.Action{Type: "ADD", Payload: 2})

	if got := store.GetState()["count"]; got != 2 {
		t.Errorf("count = %v, want 2", got)
	}

	out := buf.String()
	for _, phrase := range []string{"dispatch panic", "dispatching action", "action handled"} {
		if !strings.Contains(out, phrase) {
			t.Errorf("log output missing %q\nGot: %s", phrase, out)
		}
	}
}

func TestBuildMiddleware_Unknown(t *testing.T) {
	s := &Script{Middleware: []string{"metrics"}}
	if _, err := BuildMiddleware(s, slog.Default()); err == nil {
		t.Error("BuildMiddleware() expected error for unknown middleware, got nil")
	}
}

func TestBuildSelectors(t *testing.T) {
	s := mustParse(t, todoScript+`
selectors:
  total: count
  owner: user.name
  first: todos.0.title
  missing: nowhere.at.all
`)
	selectors := BuildSelectors(s)
	if len(selectors) != 4 {
		t.Fatalf("len(selectors) = %d, want 4", len(selectors))
	}

	store, err := fluxus.New(mustReducer(t, s), s.InitialState)
	if err != nil {
		t.Fatalf("fluxus.New() error = %v", err)
	}
	store.Dispatch(fluxus.Action{Type: "ADD", Payload: 3})

	want := map[string]any{
		"total":   3,
		"owner":   "ada",
		"first":   "write",
		"missing": nil,
	}
	for name, sel := range selectors {
		if got := fluxus.Select(store, sel); !reflect.DeepEqual(got, want[name]) {
			t.Errorf("selector %s = %#v, want %#v", name, got, want[name])
		}
	}
}

func TestLookup(t *testing.T) {
	doc := Document{
		"a": map[string]any{"b": []any{"x", map[string]any{"c": 1}}},
	}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"a.b.0", "x", true},
		{"a.b.1.c", 1, true},
		{"a.b.2", nil, false},
		{"a.b.x", nil, false},
		{"a.missing", nil, false},
		{"a.b.0.deeper", nil, false},
	}

	for _, tt := range tests {
		got, ok := Lookup(doc, tt.path)
		if ok != tt.wantOK || !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Lookup(%q) = %v, %v; want %v, %v", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
}
