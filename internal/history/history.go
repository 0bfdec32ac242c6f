package history

import "time"

// Entry is one recorded dispatch.
//
// Entry is the storage representation of a reduced action, optimized for
// JSON serialization (used by the REST API and SSE). State and Payload hold
// whatever the store's state and the action payload were; they must be JSON
// encodable to be served.
type Entry struct {
	// ID is a globally unique, time-sortable identifier.
	ID string `json:"id"`

	// Seq is the 1-based position of the entry in the history.
	Seq uint64 `json:"seq"`

	// Type is the action type.
	Type string `json:"type"`

	// Payload is the action payload, if any.
	Payload any `json:"payload,omitempty"`

	// State is the state after the action was reduced.
	// nil when the reducer failed.
	State any `json:"state"`

	// DurationMs is the time the reducer and listeners took, in milliseconds.
	DurationMs float64 `json:"duration_ms"`

	// RecordedAt is the time the entry was recorded.
	RecordedAt time.Time `json:"recorded_at"`

	// Error contains the failure message if the reducer panicked.
	// nil indicates the action was reduced normally.
	Error *string `json:"error"`
}

// Recorder defines the interface for recording and subscribing to dispatch
// history.
//
// Recorder implementations must be safe for concurrent access.
type Recorder interface {
	// Record appends an entry, assigning its ID, Seq and RecordedAt,
	// notifies all subscribers and returns the stored entry.
	Record(entry Entry) Entry

	// GetAll returns the retained entries in recording order.
	// The returned slice is a snapshot; modifications do not affect the recorder.
	GetAll() []Entry

	// Get returns the entry with the given sequence number, if retained.
	Get(seq uint64) (Entry, bool)

	// Subscribe returns a channel that receives new entries.
	// The returned channel has a buffer; slow consumers may miss entries.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Entry

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Entry)
}
