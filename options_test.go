package fluxus

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestWithLogger_Nil(t *testing.T) {
	_, err := New(counterReducer(), counterState{}, WithLogger(nil))
	if err == nil {
		t.Error("New() expected error for nil logger, got nil")
	}
}

func TestWithLogger_ReceivesDispatchLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store, err := New(counterReducer(), counterState{},
		WithLogger(logger),
		WithName("counter"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	store.Dispatch(incrementAction.Empty())

	out := buf.String()
	for _, phrase := range []string{"action reduced", "store=counter", "action=INCREMENT", "version=1"} {
		if !strings.Contains(out, phrase) {
			t.Errorf("log output missing %q\nGot: %s", phrase, out)
		}
	}
}

func TestWithName(t *testing.T) {
	store := newCounterStore(t, WithName("todos"))
	if store.Name() != "todos" {
		t.Errorf("Name() = %q, want %q", store.Name(), "todos")
	}
}

func TestWithName_Empty(t *testing.T) {
	_, err := New(counterReducer(), counterState{}, WithName(""))
	if err == nil {
		t.Error("New() expected error for empty name, got nil")
	}
}

func TestNew_OptionErrorStopsConstruction(t *testing.T) {
	calls := 0
	counting := func(*storeConfig) error {
		calls++
		return nil
	}

	_, err := New(counterReducer(), counterState{}, WithName(""), counting)
	if err == nil {
		t.Fatal("New() expected error, got nil")
	}
	if calls != 0 {
		t.Errorf("options after a failing option ran %d times, want 0", calls)
	}
}
