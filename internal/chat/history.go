package chat

import (
	"sync"
	"time"
)

// Entry is one recorded interaction.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Question  string    `json:"question"`
	SQL       string    `json:"sql,omitempty"`
	RowCount  int       `json:"row_count"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// History is a bounded, concurrency-safe ring of recent interactions.
type History struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
}

// NewHistory creates a History keeping at most capacity entries.
func NewHistory(capacity int) *History {
	return &History{cap: capacity}
}

// Add appends an entry, evicting the oldest once capacity is reached.
func (h *History) Add(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	if len(h.entries) > h.cap {
		h.entries = h.entries[len(h.entries)-h.cap:]
	}
}

// Recent returns up to n entries, newest last.
func (h *History) Recent(n int) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]Entry, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}
