package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/fluxus"
	"github.com/jpalmerr/fluxus/devtools"
)

// Todo is one item of the list.
type Todo struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// State is the application state.
type State struct {
	Todos   []Todo `json:"todos"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

var (
	loadStarted = fluxus.CreateAction[struct{}]("todos/loadStarted")
	loaded      = fluxus.CreateAction[[]Todo]("todos/loaded")
	loadFailed  = fluxus.CreateAction[string]("todos/loadFailed")
	added       = fluxus.CreateAction[string]("todos/added")
	toggled     = fluxus.CreateAction[int]("todos/toggled")
)

var selectRemaining = fluxus.NewSelector(func(s State) int {
	n := 0
	for _, t := range s.Todos {
		if !t.Done {
			n++
		}
	}
	return n
})

var reducer = fluxus.CreateReducer(State{}, fluxus.HandlerMap[State]{
	loadStarted.Type(): func(s State, _ fluxus.Action) State {
		return *fluxus.UpdateStruct(&s, func(s *State) { s.Loading = true })
	},
	loaded.Type(): func(s State, a fluxus.Action) State {
		todos, _ := loaded.Match(a)
		return State{Todos: todos}
	},
	loadFailed.Type(): func(s State, a fluxus.Action) State {
		msg, _ := loadFailed.Match(a)
		return *fluxus.UpdateStruct(&s, func(s *State) {
			s.Loading = false
			s.Error = msg
		})
	},
	added.Type(): func(s State, a fluxus.Action) State {
		title, _ := added.Match(a)
		todos := append(append([]Todo(nil), s.Todos...), Todo{ID: len(s.Todos) + 1, Title: title})
		return *fluxus.UpdateStruct(&s, func(s *State) { s.Todos = todos })
	},
	toggled.Type(): func(s State, a fluxus.Action) State {
		id, _ := toggled.Match(a)
		for i, t := range s.Todos {
			if t.ID == id {
				t.Done = !t.Done
				todos, err := fluxus.UpdateArray(s.Todos, i, t)
				if err != nil {
					return s
				}
				return *fluxus.UpdateStruct(&s, func(s *State) { s.Todos = todos })
			}
		}
		return s
	},
})

// loadTodos fetches the list from the mock API and dispatches the result.
func loadTodos(url string) fluxus.Action {
	return fluxus.ThunkAction[State]("todos/load", func(dispatch fluxus.Dispatch, _ func() State) {
		dispatch(loadStarted.Empty())
		go func() {
			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get(url)
			if err != nil {
				dispatch(loadFailed.With(err.Error()))
				return
			}
			defer resp.Body.Close()

			var todos []Todo
			if err := json.NewDecoder(resp.Body).Decode(&todos); err != nil {
				dispatch(loadFailed.With(err.Error()))
				return
			}
			dispatch(loaded.With(todos))
		}()
	})
}

// decodeAction converts JSON payloads posted from the inspector page.
func decodeAction(a fluxus.Action) (fluxus.Action, error) {
	switch a.Type {
	case added.Type():
		title, err := devtools.ConvertPayload[string](a.Payload)
		return added.With(title), err
	case toggled.Type():
		id, err := devtools.ConvertPayload[int](a.Payload)
		return toggled.With(id), err
	case loadStarted.Type():
		return loadStarted.Empty(), nil
	}
	return a, fmt.Errorf("%w: %s cannot be sent from the inspector", devtools.ErrInvalidAction, a.Type)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// start mock server (see mock_server.go)
	go StartMockTodoServer(":9999")
	time.Sleep(100 * time.Millisecond)

	inspector, err := devtools.New[State](
		devtools.WithPort(8080),
		devtools.WithTitle("Todo Demo"),
		devtools.WithLogger(logger),
		devtools.WithDecoder(decodeAction),
	)
	if err != nil {
		slog.Error("failed to create inspector", "error", err)
		os.Exit(1)
	}

	store, err := fluxus.New(reducer, State{},
		fluxus.WithName("todos"),
		fluxus.WithLogger(logger),
		fluxus.WithMiddleware(
			fluxus.RecoveryMiddleware[State](logger),
			fluxus.LoggingMiddleware[State](logger),
			fluxus.ThunkMiddleware[State](),
			inspector.Middleware(),
		),
	)
	if err != nil {
		slog.Error("failed to create store", "error", err)
		os.Exit(1)
	}

	unsubscribe := store.Subscribe(func() {
		logger.Info("todos changed", "remaining", fluxus.Select(store, selectRemaining))
	})
	defer unsubscribe()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := inspector.Start(ctx); err != nil {
		slog.Error("inspector error", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Fluxus Todo Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Println("  Try dispatching {\"type\": \"todos/added\", \"payload\": \"buy milk\"}")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	store.Dispatch(loadTodos("http://localhost:9999/todos"))
	store.Dispatch(added.With("try the CLI"))

	<-ctx.Done()
}
