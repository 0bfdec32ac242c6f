// Package server provides the HTTP server for the fluxus devtools inspector.
//
// This package is internal to fluxus and handles all HTTP concerns:
//
//   - Inspector page: Serves the embedded HTML page at "/"
//   - REST API: current state, recorded history and action dispatch under "/api"
//   - Server-Sent Events: Live history entries at "/api/sse"
//
// Routing uses gorilla/mux. The server supports graceful shutdown via
// context cancellation, with a 5-second timeout for in-flight requests.
//
// Users of the fluxus library should not need to interact with this package
// directly. The server is started by the devtools Inspector.
package server
