package history

import (
	"sync"
	"time"

	"github.com/rs/xid"
)

// subscriberBuffer is the channel buffer size for each subscriber.
const subscriberBuffer = 100

// MemoryRecorder is an in-memory implementation of [Recorder].
//
// Entries are kept in recording order. When a limit is set, the oldest
// entries are dropped once the limit is exceeded; sequence numbers keep
// increasing regardless.
//
// Subscribers receive entries via buffered channels (buffer size 100).
// Entries are sent non-blocking; if a subscriber's buffer is full, the entry
// is dropped for that subscriber to prevent blocking dispatch.
type MemoryRecorder struct {
	mu      sync.RWMutex
	entries []Entry
	nextSeq uint64
	limit   int
	now     func() time.Time

	subscribers map[chan Entry]struct{}
	subMu       sync.RWMutex
}

// NewMemoryRecorder creates a new in-memory [Recorder].
//
// limit bounds the number of retained entries; zero or negative keeps all.
func NewMemoryRecorder(limit int) *MemoryRecorder {
	if limit < 0 {
		limit = 0
	}
	return &MemoryRecorder{
		nextSeq:     1,
		limit:       limit,
		now:         time.Now,
		subscribers: make(map[chan Entry]struct{}),
	}
}

// Record stores an entry and notifies all subscribers.
func (m *MemoryRecorder) Record(entry Entry) Entry {
	m.mu.Lock()
	entry.ID = xid.New().String()
	entry.Seq = m.nextSeq
	entry.RecordedAt = m.now()
	m.nextSeq++

	m.entries = append(m.entries, entry)
	if m.limit > 0 && len(m.entries) > m.limit {
		// copy to release the dropped prefix
		trimmed := make([]Entry, m.limit)
		copy(trimmed, m.entries[len(m.entries)-m.limit:])
		m.entries = trimmed
	}
	m.mu.Unlock()

	m.notifySubscribers(entry)
	return entry
}

// GetAll returns a snapshot of the retained entries in recording order.
func (m *MemoryRecorder) GetAll() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]Entry, len(m.entries))
	copy(entries, m.entries)
	return entries
}

// Get returns the entry with sequence number seq.
func (m *MemoryRecorder) Get(seq uint64) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return Entry{}, false
	}
	// sequence numbers are contiguous within the retained window
	first := m.entries[0].Seq
	if seq < first || seq-first >= uint64(len(m.entries)) {
		return Entry{}, false
	}
	return m.entries[seq-first], true
}

// Subscribe creates a new subscription and returns a channel for receiving entries.
//
// The returned channel has a buffer of 100 entries. If the buffer fills
// (slow consumer), new entries are dropped for this subscriber.
//
// Caller must call [MemoryRecorder.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryRecorder) Subscribe() <-chan Entry {
	ch := make(chan Entry, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryRecorder) Unsubscribe(ch <-chan Entry) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the entry to all active subscribers without blocking.
func (m *MemoryRecorder) notifySubscribers(entry Entry) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- entry:
		default:
			// subscriber is slow, drop the entry
		}
	}
}
