package session

import "sync"

// History is a bounded record of raw inbound messages, oldest dropped
// first. It backs the /messages operator surface.
type History struct {
	mu      sync.Mutex
	limit   int
	entries []string
}

// NewHistory creates a history bounded to limit entries; limit 0 disables
// recording.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

func (h *History) Append(raw []byte) {
	if h.limit == 0 {
		return
	}
	h.mu.Lock()
	h.entries = append(h.entries, string(raw))
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
	h.mu.Unlock()
}

// Snapshot returns a defensive copy of the recorded messages.
func (h *History) Snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
