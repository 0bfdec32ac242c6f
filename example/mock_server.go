package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// StartMockTodoServer runs a mock API serving a fixed todo list at /todos.
// Responses are delayed by 100-400ms to make the asynchronous load visible.
// Call this in a goroutine before dispatching the load thunk.
func StartMockTodoServer(addr string) {
	todos := []Todo{
		{ID: 1, Title: "read the docs"},
		{ID: 2, Title: "write a reducer"},
		{ID: 3, Title: "open the inspector", Done: true},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/todos", func(w http.ResponseWriter, r *http.Request) {
		// simulate latency variance
		time.Sleep(time.Duration(100+rand.Intn(300)) * time.Millisecond)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(todos); err != nil {
			slog.Error("failed to encode todos", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
