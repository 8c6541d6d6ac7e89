package edit

import (
	"time"
)

// DefaultCoalesceWindow groups rapid slider drags into one undo step.
const DefaultCoalesceWindow = 400 * time.Millisecond

// HistoryEntry is one committed snapshot.
type HistoryEntry struct {
	// Seq increases monotonically across the history's lifetime, including
	// entries later truncated by a divergent commit. It identifies an image
	// version for render scheduling.
	Seq int64

	// Target names what the commit changed ("exposure", "mask:Sky").
	// Consecutive commits with the same target inside the coalescing window
	// collapse into one entry.
	Target string

	State State
	At    time.Time
}

// History is the undo stack for one image: an append-only list of immutable
// state snapshots plus a cursor. Undo and redo move the cursor without
// discarding entries; committing while undone truncates the redo tail
// first, like every photo editor's history panel.
//
// History is not safe for concurrent use; callers serialize access the same
// way they serialize edits.
type History struct {
	entries []HistoryEntry
	active  int
	window  time.Duration
	nextSeq int64
	now     func() time.Time
}

// NewHistory creates a history whose first entry is the initial state.
func NewHistory(initial State) *History {
	h := &History{
		window:  DefaultCoalesceWindow,
		now:     time.Now,
		nextSeq: 1,
	}
	h.entries = []HistoryEntry{{Seq: 0, State: initial, At: h.now()}}
	return h
}

// SetCoalesceWindow overrides the drag-coalescing window. Zero disables
// coalescing entirely.
func (h *History) SetCoalesceWindow(d time.Duration) { h.window = d }

// Commit records a new state. If the previous commit touched the same
// target within the coalescing window and no undo happened in between, the
// new state replaces it in place so a slider drag lands as one undo step.
// The replaced entry keeps a fresh sequence number: every commit is a new
// image version even when it coalesces.
func (h *History) Commit(s State, target string) HistoryEntry {
	now := h.now()
	e := HistoryEntry{Seq: h.nextSeq, Target: target, State: s, At: now}
	h.nextSeq++

	last := &h.entries[h.active]
	atTip := h.active == len(h.entries)-1
	if atTip && h.active > 0 && h.window > 0 &&
		last.Target == target && now.Sub(last.At) <= h.window {
		*last = e
		return e
	}

	// A commit after undo discards the redo tail.
	h.entries = append(h.entries[:h.active+1], e)
	h.active = len(h.entries) - 1
	return e
}

// Undo steps the cursor back one entry. It reports false at the initial
// state.
func (h *History) Undo() (HistoryEntry, bool) {
	if h.active == 0 {
		return HistoryEntry{}, false
	}
	h.active--
	return h.entries[h.active], true
}

// Redo steps the cursor forward one entry. It reports false at the tip.
func (h *History) Redo() (HistoryEntry, bool) {
	if h.active == len(h.entries)-1 {
		return HistoryEntry{}, false
	}
	h.active++
	return h.entries[h.active], true
}

// Current returns the entry at the cursor.
func (h *History) Current() HistoryEntry { return h.entries[h.active] }

// CanUndo reports whether Undo would move the cursor.
func (h *History) CanUndo() bool { return h.active > 0 }

// CanRedo reports whether Redo would move the cursor.
func (h *History) CanRedo() bool { return h.active < len(h.entries)-1 }

// Len returns the number of entries, including those behind and ahead of
// the cursor.
func (h *History) Len() int { return len(h.entries) }
