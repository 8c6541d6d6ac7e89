package edit

import (
	"testing"
	"time"
)

func testHistory(t *testing.T) (*History, *time.Time) {
	t.Helper()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	h := NewHistory(NewState())
	h.now = func() time.Time { return now }
	return h, &now
}

func stateWithEV(t *testing.T, ev float64) State {
	t.Helper()
	s, err := NewStateWith(NewGlobalGroup(Exposure{EV: ev}))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestHistoryUndoRedo(t *testing.T) {
	h, now := testHistory(t)

	h.Commit(stateWithEV(t, 1), "exposure")
	*now = now.Add(time.Second)
	h.Commit(stateWithEV(t, 1.5), "contrast")

	if !h.CanUndo() || h.CanRedo() {
		t.Fatal("expected undo available, redo unavailable at tip")
	}

	e, ok := h.Undo()
	if !ok || e.Target != "exposure" {
		t.Fatalf("Undo() = %+v, %v; want exposure entry", e, ok)
	}
	e, ok = h.Undo()
	if !ok || e.State.Len() != 0 {
		t.Fatalf("second undo should reach initial state, got %+v", e)
	}
	if _, ok := h.Undo(); ok {
		t.Error("undo past the initial state succeeded")
	}

	e, ok = h.Redo()
	if !ok || e.Target != "exposure" {
		t.Fatalf("Redo() = %+v, %v; want exposure entry", e, ok)
	}
}

func TestHistoryCommitTruncatesRedo(t *testing.T) {
	h, now := testHistory(t)

	h.Commit(stateWithEV(t, 1), "exposure")
	*now = now.Add(time.Second)
	h.Commit(stateWithEV(t, 2), "exposure2")
	h.Undo()

	*now = now.Add(time.Second)
	h.Commit(stateWithEV(t, 3), "vignette")

	if h.CanRedo() {
		t.Error("redo tail survived a divergent commit")
	}
	if h.Len() != 3 {
		t.Errorf("history length = %d, want 3 (initial + exposure + vignette)", h.Len())
	}
	if h.Current().Target != "vignette" {
		t.Errorf("current target = %q, want vignette", h.Current().Target)
	}
}

func TestHistoryCoalescesSliderDrag(t *testing.T) {
	h, now := testHistory(t)

	h.Commit(stateWithEV(t, 0.1), "exposure")
	for i := 2; i <= 5; i++ {
		*now = now.Add(100 * time.Millisecond)
		h.Commit(stateWithEV(t, float64(i)/10), "exposure")
	}

	// Five commits inside the window, same target: one undo step.
	if h.Len() != 2 {
		t.Fatalf("history length = %d, want 2 (initial + coalesced drag)", h.Len())
	}
	cur := h.Current()
	if ev := cur.State.Group(0).Adjustments[0].(Exposure).EV; ev != 0.5 {
		t.Errorf("coalesced state EV = %v, want final drag value 0.5", ev)
	}

	e, ok := h.Undo()
	if !ok || e.State.Len() != 0 {
		t.Error("single undo should reach the pre-drag state")
	}
}

func TestHistoryCoalesceBoundaries(t *testing.T) {
	h, now := testHistory(t)

	// Outside the window: separate entries.
	h.Commit(stateWithEV(t, 0.1), "exposure")
	*now = now.Add(DefaultCoalesceWindow + time.Millisecond)
	h.Commit(stateWithEV(t, 0.2), "exposure")
	if h.Len() != 3 {
		t.Errorf("commits beyond the window coalesced: len = %d, want 3", h.Len())
	}

	// Different target: separate entries.
	*now = now.Add(10 * time.Millisecond)
	h.Commit(stateWithEV(t, 0.3), "contrast")
	if h.Len() != 4 {
		t.Errorf("different targets coalesced: len = %d, want 4", h.Len())
	}

	// After an undo, a same-target commit never coalesces into an entry
	// the user explicitly stepped away from.
	h.Undo()
	*now = now.Add(10 * time.Millisecond)
	h.Commit(stateWithEV(t, 0.4), "exposure")
	if h.Current().State.Group(0).Adjustments[0].(Exposure).EV != 0.4 {
		t.Error("post-undo commit lost")
	}
	if h.Len() != 4 {
		t.Errorf("len = %d, want 4 (redo tail replaced)", h.Len())
	}
}

func TestHistorySequenceMonotonic(t *testing.T) {
	h, now := testHistory(t)

	var prev int64 = -1
	for i := 0; i < 5; i++ {
		*now = now.Add(time.Second)
		e := h.Commit(stateWithEV(t, float64(i+1)/10), "exposure")
		if e.Seq <= prev {
			t.Fatalf("commit %d: seq %d not monotonic after %d", i, e.Seq, prev)
		}
		prev = e.Seq
	}

	// Coalesced commits still get fresh sequence numbers.
	*now = now.Add(50 * time.Millisecond)
	e := h.Commit(stateWithEV(t, 0.9), "exposure")
	if e.Seq <= prev {
		t.Error("coalesced commit reused a sequence number")
	}
	if h.Len() != 6 {
		t.Errorf("len = %d, want 6", h.Len())
	}
}
