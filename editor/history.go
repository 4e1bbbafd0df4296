package editor

import (
	"time"

	"github.com/meikuraledutech/canvas"
)

// DefaultHistoryCapacity bounds undo depth when no capacity is configured.
const DefaultHistoryCapacity = 50

// Entry is one snapshot in the history log.
type Entry struct {
	Action    string
	Timestamp time.Time
	graph     canvas.Graph
}

// Graph returns a copy of the snapshot.
func (e Entry) Graph() canvas.Graph { return e.graph.Clone() }

// History is a bounded linear undo log. entries[:index+1] is the past,
// entries[index+1:] the redoable future.
type History struct {
	entries  []Entry
	index    int
	capacity int
	now      func() time.Time
}

// NewHistory returns an empty history holding at most capacity entries.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{index: -1, capacity: capacity, now: time.Now}
}

// Push records g as the new current entry, discarding any redoable future
// and evicting the oldest entry when full. g is copied.
func (h *History) Push(action string, g canvas.Graph) {
	h.entries = append(h.entries[:h.index+1], Entry{
		Action:    action,
		Timestamp: h.now(),
		graph:     g.Clone(),
	})
	if len(h.entries) > h.capacity {
		drop := len(h.entries) - h.capacity
		h.entries = append(h.entries[:0:0], h.entries[drop:]...)
	}
	h.index = len(h.entries) - 1
}

// Reset drops every entry and records g as the only one.
func (h *History) Reset(action string, g canvas.Graph) {
	h.entries = nil
	h.index = -1
	h.Push(action, g)
}

// Undo steps back one entry and returns its graph.
func (h *History) Undo() (canvas.Graph, bool) {
	if !h.CanUndo() {
		return canvas.Graph{}, false
	}
	h.index--
	return h.entries[h.index].Graph(), true
}

// Redo steps forward one entry and returns its graph.
func (h *History) Redo() (canvas.Graph, bool) {
	if !h.CanRedo() {
		return canvas.Graph{}, false
	}
	h.index++
	return h.entries[h.index].Graph(), true
}

// CanUndo reports whether an entry precedes the current one.
func (h *History) CanUndo() bool { return h.index > 0 }

// CanRedo reports whether an entry follows the current one.
func (h *History) CanRedo() bool { return h.index < len(h.entries)-1 }

// Len is the number of entries kept.
func (h *History) Len() int { return len(h.entries) }

// Index is the position of the current entry, or -1 when empty.
func (h *History) Index() int { return h.index }

// Entries returns the log in order. The snapshots are not shared with the
// history.
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	for i, e := range h.entries {
		out[i] = Entry{Action: e.Action, Timestamp: e.Timestamp, graph: e.graph.Clone()}
	}
	return out
}
