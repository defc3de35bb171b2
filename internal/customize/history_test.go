package customize

import (
	"fmt"
	"testing"
)

func snapshot(n int) Document {
	return Set(New("classic", "2.1.0"), "global.step", fmt.Sprintf("v%d", n))
}

func stepOf(t *testing.T, doc Document) string {
	t.Helper()
	value, ok := Get(doc, "global.step", "").(string)
	if !ok {
		t.Fatal("global.step is not a string")
	}
	return value
}

func TestHistoryUndoRedo(t *testing.T) {
	h := NewHistory(snapshot(0), 10)
	h.Push(snapshot(1))
	h.Push(snapshot(2))

	if !h.CanUndo() {
		t.Fatal("expected CanUndo after pushes")
	}
	if h.CanRedo() {
		t.Fatal("CanRedo should be false at the newest entry")
	}

	doc, ok := h.Undo()
	if !ok || stepOf(t, doc) != "v1" {
		t.Fatalf("Undo = %q, %v; want v1, true", stepOf(t, doc), ok)
	}
	doc, ok = h.Undo()
	if !ok || stepOf(t, doc) != "v0" {
		t.Fatalf("second Undo = %q, %v; want v0, true", stepOf(t, doc), ok)
	}
	if _, ok := h.Undo(); ok {
		t.Fatal("Undo past the oldest entry should report false")
	}

	doc, ok = h.Redo()
	if !ok || stepOf(t, doc) != "v1" {
		t.Fatalf("Redo = %q, %v; want v1, true", stepOf(t, doc), ok)
	}
	doc, ok = h.Redo()
	if !ok || stepOf(t, doc) != "v2" {
		t.Fatalf("second Redo = %q, %v; want v2, true", stepOf(t, doc), ok)
	}
	if _, ok := h.Redo(); ok {
		t.Fatal("Redo past the newest entry should report false")
	}
}

func TestHistoryPushTruncatesRedoFuture(t *testing.T) {
	h := NewHistory(snapshot(0), 10)
	h.Push(snapshot(1))
	h.Push(snapshot(2))

	if _, ok := h.Undo(); !ok {
		t.Fatal("Undo failed")
	}
	h.Push(snapshot(3))

	if h.CanRedo() {
		t.Fatal("push after undo must discard the redo future")
	}
	if got := stepOf(t, h.Current()); got != "v3" {
		t.Fatalf("Current = %q, want v3", got)
	}
	doc, _ := h.Undo()
	if got := stepOf(t, doc); got != "v1" {
		t.Fatalf("Undo after truncating push = %q, want v1", got)
	}
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	h := NewHistory(snapshot(0), 3)
	for i := 1; i <= 5; i++ {
		h.Push(snapshot(i))
	}

	if h.Len() != 3 {
		t.Fatalf("Len = %d, want 3", h.Len())
	}
	if got := stepOf(t, h.Current()); got != "v5" {
		t.Fatalf("Current = %q, want v5", got)
	}

	// Walk back to the oldest surviving entry.
	var last Document
	for h.CanUndo() {
		last, _ = h.Undo()
	}
	if got := stepOf(t, last); got != "v3" {
		t.Fatalf("oldest entry = %q, want v3", got)
	}
}

func TestHistoryDefaultCap(t *testing.T) {
	h := NewHistory(snapshot(0), 0)
	for i := 1; i <= DefaultHistoryCap+10; i++ {
		h.Push(snapshot(i))
	}
	if h.Len() != DefaultHistoryCap {
		t.Fatalf("Len = %d, want %d", h.Len(), DefaultHistoryCap)
	}
}

func TestHistorySnapshotsAreIsolated(t *testing.T) {
	doc := snapshot(0)
	h := NewHistory(doc, 10)

	// Mutating the pushed document must not reach the stored snapshot.
	doc.Customizations["global"].(map[string]any)["step"] = "mutated"
	if got := stepOf(t, h.Current()); got != "v0" {
		t.Fatalf("stored snapshot mutated: %q", got)
	}

	current := h.Current()
	current.Customizations["global"].(map[string]any)["step"] = "mutated"
	if got := stepOf(t, h.Current()); got != "v0" {
		t.Fatalf("Current leaked internal state: %q", got)
	}
}
