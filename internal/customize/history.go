package customize

// DefaultHistoryCap bounds the undo history unless a caller overrides it.
const DefaultHistoryCap = 50

// History is a bounded linear undo model over document snapshots. Pushing a
// new entry truncates any redo future; exceeding the cap evicts the oldest
// entry. All entries are deep copies, so later edits never leak into stored
// snapshots.
type History struct {
	entries []Document
	index   int
	cap     int
}

// NewHistory starts a history containing only the initial document.
func NewHistory(initial Document, capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &History{
		entries: []Document{Clone(initial)},
		index:   0,
		cap:     capacity,
	}
}

// Push records a new snapshot, discarding any entries beyond the current
// position and evicting the oldest entry once the cap is exceeded.
func (h *History) Push(doc Document) {
	h.entries = append(h.entries[:h.index+1], Clone(doc))
	h.index = len(h.entries) - 1
	if len(h.entries) > h.cap {
		overflow := len(h.entries) - h.cap
		h.entries = h.entries[overflow:]
		h.index -= overflow
	}
}

// Undo steps back one entry. It reports false without moving when already at
// the oldest entry.
func (h *History) Undo() (Document, bool) {
	if !h.CanUndo() {
		return Document{}, false
	}
	h.index--
	return Clone(h.entries[h.index]), true
}

// Redo steps forward one entry. It reports false without moving when already
// at the newest entry.
func (h *History) Redo() (Document, bool) {
	if !h.CanRedo() {
		return Document{}, false
	}
	h.index++
	return Clone(h.entries[h.index]), true
}

func (h *History) CanUndo() bool {
	return h.index > 0
}

func (h *History) CanRedo() bool {
	return h.index < len(h.entries)-1
}

// Current returns the snapshot at the present position.
func (h *History) Current() Document {
	return Clone(h.entries[h.index])
}

// Len returns the number of stored snapshots.
func (h *History) Len() int {
	return len(h.entries)
}
