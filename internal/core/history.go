package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Change is one field modified by a commit.
type Change struct {
	Field Field  `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// EditEntry records a committed cell edit.
type EditEntry struct {
	ID       string    `json:"id"`
	RecordID string    `json:"recordId"`
	Field    Field     `json:"field"`
	OldValue string    `json:"oldValue"`
	NewValue string    `json:"newValue"`
	At       time.Time `json:"at"`
}

// History is the in-memory log of commits for one session.
type History struct {
	mu      sync.RWMutex
	entries []EditEntry
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{}
}

// Record appends one entry per change.
func (h *History) Record(recordID string, changes []Change, at time.Time) {
	if h == nil || len(changes) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range changes {
		h.entries = append(h.entries, EditEntry{
			ID:       uuid.NewString(),
			RecordID: recordID,
			Field:    c.Field,
			OldValue: c.Old,
			NewValue: c.New,
			At:       at,
		})
	}
}

// Entries returns the history newest first.
func (h *History) Entries() []EditEntry {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]EditEntry, len(h.entries))
	for i, e := range h.entries {
		out[len(h.entries)-1-i] = e
	}
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
