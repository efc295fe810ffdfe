package brush

// History keeps a bounded undo/redo stack of stroke records. Pushing a
// new record clears the redo side; exceeding the bound evicts the oldest
// undo entry.
type History[S any] struct {
	limit int
	undo  []S
	redo  []S
}

// NewHistory returns a history bounded to limit entries. A non-positive
// limit falls back to 1.
func NewHistory[S any](limit int) *History[S] {
	if limit < 1 {
		limit = 1
	}
	return &History[S]{limit: limit}
}

// Push records a completed stroke and clears any pending redo.
func (h *History[S]) Push(record S) {
	h.redo = h.redo[:0]
	h.undo = append(h.undo, record)
	if len(h.undo) > h.limit {
		copy(h.undo, h.undo[1:])
		h.undo = h.undo[:h.limit]
	}
}

// Undo pops the most recent record onto the redo stack and returns it.
func (h *History[S]) Undo() (S, bool) {
	var zero S
	if len(h.undo) == 0 {
		return zero, false
	}
	record := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, record)
	return record, true
}

// Redo pops the most recently undone record back onto the undo stack and
// returns it.
func (h *History[S]) Redo() (S, bool) {
	var zero S
	if len(h.redo) == 0 {
		return zero, false
	}
	record := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, record)
	return record, true
}

// CanUndo reports whether an undo record is available.
func (h *History[S]) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether a redo record is available.
func (h *History[S]) CanRedo() bool { return len(h.redo) > 0 }

// Len returns the number of undoable records.
func (h *History[S]) Len() int { return len(h.undo) }

// Clear drops both stacks.
func (h *History[S]) Clear() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}
