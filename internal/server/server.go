package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jpalmerr/fluxus/internal/history"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// maxDispatchBody limits the size of a dispatched action.
	maxDispatchBody = 1 << 20

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Fluxus Devtools"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// ErrInvalidAction is returned by a [StateSource] when it rejects an action
// as malformed. The server answers such errors with 400 Bad Request.
var ErrInvalidAction = errors.New("invalid action")

// StateSource gives the server access to the inspected store.
type StateSource interface {
	// State returns the current state of the store.
	State() any

	// Dispatch sends an action to the store.
	// Errors wrapping ErrInvalidAction are reported as client errors.
	Dispatch(actionType string, payload any) error
}

// ActionRequest is the body accepted by POST /api/dispatch.
type ActionRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Server handles HTTP requests for the devtools page and API.
//
// Server provides these endpoints:
//   - GET /: Serves the embedded inspector page
//   - GET /api/state: Returns the current state as JSON
//   - GET /api/history: Returns all recorded entries as JSON
//   - GET /api/history/{seq}: Returns one recorded entry
//   - POST /api/dispatch: Dispatches a JSON action and returns the new state
//   - GET /api/sse: Server-Sent Events stream of new entries
type Server struct {
	recorder   history.Recorder
	source     StateSource
	port       int
	httpServer *http.Server
	listener   net.Listener
	assets     fs.FS
	title      string
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - rec: Recorder holding the dispatch history
//   - src: Access to the inspected store
//   - port: TCP port to listen on (0 picks a free port)
//   - assets: Embedded filesystem containing the inspector page (may be nil)
//   - title: Page title (defaults to "Fluxus Devtools" if empty)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(rec history.Recorder, src StateSource, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	return &Server{
		recorder: rec,
		source:   src,
		port:     port,
		assets:   assets,
		title:    title,
		logger:   logger,
	}
}

// Handler returns the router serving all endpoints.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/history/{seq:[0-9]+}", s.handleHistoryEntry).Methods(http.MethodGet)
	api.HandleFunc("/dispatch", s.handleDispatch).Methods(http.MethodPost)
	api.HandleFunc("/sse", s.handleSSE).Methods(http.MethodGet)

	if s.assets != nil {
		r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	}

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		// request contexts derive from ctx so SSE handlers stop on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Port returns the port the server listens on, or the configured port if
// the server has not been started.
func (s *Server) Port() int {
	if s.listener != nil {
		if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return tcp.Port
		}
	}
	return s.port
}

// handleIndex serves the inspector page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.assets == nil {
		http.Error(w, "Inspector not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Inspector not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write inspector response", "error", err)
	}
}

// handleState returns the current state as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.source.State())
}

// handleHistory returns all recorded entries as JSON.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.recorder.GetAll())
}

// handleHistoryEntry returns a single entry by sequence number.
func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(mux.Vars(r)["seq"], 10, 64)
	if err != nil {
		http.Error(w, "invalid sequence number", http.StatusBadRequest)
		return
	}

	entry, ok := s.recorder.Get(seq)
	if !ok {
		http.Error(w, "entry not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

// handleDispatch decodes an action from the body and dispatches it.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxDispatchBody))
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		http.Error(w, "action type is required", http.StatusBadRequest)
		return
	}

	if err := s.source.Dispatch(req.Type, req.Payload); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidAction) {
			status = http.StatusBadRequest
		}
		s.logger.Warn("dispatch from devtools failed", "action", req.Type, "error", err)
		http.Error(w, err.Error(), status)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"state": s.source.State()})
}

// writeJSON encodes v as the response body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams new history entries via Server-Sent Events.
//
// The handler uses write deadlines so a slow or disconnected client cannot
// block it past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before replaying so no entry falls between the two
	ch := s.recorder.Subscribe()
	defer s.recorder.Unsubscribe(ch)

	var lastSeq uint64
	for _, entry := range s.recorder.GetAll() {
		data, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
		lastSeq = entry.Seq
	}

	for {
		select {
		case entry, ok := <-ch:
			if !ok {
				return
			}
			if entry.Seq <= lastSeq {
				// already sent during replay
				continue
			}
			data, err := json.Marshal(entry)
			if err != nil {
				s.logger.Warn("failed to encode history entry", "seq", entry.Seq, "error", err)
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown (BaseContext)
			return
		}
	}
}
