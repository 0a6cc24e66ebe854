// internal/subtitle/undo.go
package subtitle

// DefaultMaxHistory bounds how many editing states a history keeps.
const DefaultMaxHistory = 50

// History tracks undo and redo states for a caption list. States are deep
// copies, so later edits never leak into saved snapshots.
type History struct {
	undoStack  [][]*Caption
	redoStack  [][]*Caption
	maxHistory int
}

// NewHistory returns a history bounded to maxHistory states. Zero or
// negative values fall back to the default.
func NewHistory(maxHistory int) *History {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &History{maxHistory: maxHistory}
}

func copyState(captions []*Caption) []*Caption {
	state := make([]*Caption, len(captions))
	for i, caption := range captions {
		state[i] = caption.Copy()
	}
	return state
}

// Save pushes the current state onto the undo stack and clears the redo
// stack. The oldest state is dropped once the history is full.
func (h *History) Save(captions []*Caption) {
	h.undoStack = append(h.undoStack, copyState(captions))
	h.redoStack = nil

	if len(h.undoStack) > h.maxHistory {
		h.undoStack = h.undoStack[1:]
	}
}

// Undo returns the previous state, recording the current one for redo.
// It returns nil when there is nothing to undo.
func (h *History) Undo(current []*Caption) []*Caption {
	if len(h.undoStack) == 0 {
		return nil
	}
	h.redoStack = append(h.redoStack, copyState(current))

	last := len(h.undoStack) - 1
	state := h.undoStack[last]
	h.undoStack = h.undoStack[:last]
	return state
}

// Redo returns the next state, recording the current one for undo. It
// returns nil when there is nothing to redo.
func (h *History) Redo(current []*Caption) []*Caption {
	if len(h.redoStack) == 0 {
		return nil
	}
	h.undoStack = append(h.undoStack, copyState(current))

	last := len(h.redoStack) - 1
	state := h.redoStack[last]
	h.redoStack = h.redoStack[:last]
	return state
}

// CanUndo reports whether an undo state is available.
func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }

// CanRedo reports whether a redo state is available.
func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }

// Clear drops all saved states.
func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}
