// Package history records the dispatch history of a fluxus store and
// publishes new entries to subscribers.
//
// This package is internal to fluxus and backs the devtools inspector. It
// keeps an append-only log of reduced actions together with the state each
// one produced, and implements a publish-subscribe pattern for streaming new
// entries to connected clients.
//
// The main components are:
//
//   - [Recorder]: Interface defining recording and subscription operations
//   - [MemoryRecorder]: In-memory implementation of Recorder with pub/sub
//   - [Entry]: One recorded dispatch
//
// The recorder is designed for concurrent access with proper synchronization.
// Subscribers receive entries via channels with non-blocking sends (slow
// subscribers will miss entries rather than block dispatch).
package history
