// internal/subtitle/undo_test.go
package subtitle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captionState(text string) []*Caption {
	return []*Caption{NewCaption(1, "00:00:00,000", "00:00:01,000", text, "")}
}

func TestHistoryStartsEmpty(t *testing.T) {
	history := NewHistory(0)

	assert.False(t, history.CanUndo())
	assert.False(t, history.CanRedo())
	assert.Nil(t, history.Undo(captionState("current")))
	assert.Nil(t, history.Redo(captionState("current")))
}

func TestHistoryUndoRedoSequence(t *testing.T) {
	history := NewHistory(10)

	history.Save(captionState("v1"))
	history.Save(captionState("v2"))
	current := captionState("v3")

	require.True(t, history.CanUndo())

	previous := history.Undo(current)
	require.NotNil(t, previous)
	assert.Equal(t, "v2", previous[0].Text)
	assert.True(t, history.CanRedo())

	next := history.Redo(previous)
	require.NotNil(t, next)
	assert.Equal(t, "v3", next[0].Text)

	// Undo again walks back through both states.
	assert.Equal(t, "v2", history.Undo(next)[0].Text)
	assert.Equal(t, "v1", history.Undo(captionState("v2"))[0].Text)
	assert.False(t, history.CanUndo())
}

func TestHistorySaveClearsRedo(t *testing.T) {
	history := NewHistory(10)

	history.Save(captionState("v1"))
	history.Undo(captionState("v2"))
	require.True(t, history.CanRedo())

	history.Save(captionState("v1-edited"))
	assert.False(t, history.CanRedo())
}

func TestHistoryEvictsOldestState(t *testing.T) {
	history := NewHistory(3)

	for i := 1; i <= 5; i++ {
		history.Save(captionState(fmt.Sprintf("v%d", i)))
	}

	// Only the newest three states survive.
	assert.Equal(t, "v5", history.Undo(captionState("v6"))[0].Text)
	assert.Equal(t, "v4", history.Undo(captionState("v5"))[0].Text)
	assert.Equal(t, "v3", history.Undo(captionState("v4"))[0].Text)
	assert.False(t, history.CanUndo())
}

func TestHistoryStatesAreDeepCopies(t *testing.T) {
	history := NewHistory(10)

	captions := captionState("original")
	history.Save(captions)

	// Mutating the live captions must not leak into the saved state.
	captions[0].Text = "mutated"

	restored := history.Undo(captions)
	require.NotNil(t, restored)
	assert.Equal(t, "original", restored[0].Text)

	// The redo snapshot is independent of the caller's slice too.
	captions[0].Text = "mutated again"
	redone := history.Redo(restored)
	require.NotNil(t, redone)
	assert.Equal(t, "mutated", redone[0].Text)
}
