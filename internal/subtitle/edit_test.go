// internal/subtitle/edit_test.go
package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func editorFixture() *Document {
	doc := NewDocument(FormatSRT)
	doc.Captions = []*Caption{
		NewCaption(1, "00:00:00,000", "00:00:10,000", "first part second part", ""),
		NewCaption(2, "00:00:10,000", "00:00:20,000", "middle caption", ""),
		NewCaption(3, "00:00:20,000", "00:00:30,000", "last caption", ""),
	}
	return doc
}

func TestSplitSingleLine(t *testing.T) {
	doc := editorFixture()
	require.NoError(t, doc.Split(0))

	require.Len(t, doc.Captions, 4)
	first := doc.Captions[0]
	second := doc.Captions[1]

	// Split lands at the space nearest the middle of the text.
	assert.Equal(t, "first part", first.Text)
	assert.Equal(t, "second part", second.Text)

	// Time span splits at the midpoint.
	assert.Equal(t, "00:00:05,000", first.EndTime)
	assert.Equal(t, "00:00:05,000", second.StartTime)
	assert.Equal(t, "00:00:10,000", second.EndTime)

	for i, caption := range doc.Captions {
		assert.Equal(t, i+1, caption.Index)
	}
}

func TestSplitMultiLine(t *testing.T) {
	doc := editorFixture()
	doc.Captions[0].Text = "line one\nline two\nline three\nline four"

	require.NoError(t, doc.Split(0))

	assert.Equal(t, "line one\nline two", doc.Captions[0].Text)
	assert.Equal(t, "line three\nline four", doc.Captions[1].Text)
}

func TestSplitOutOfRange(t *testing.T) {
	doc := editorFixture()
	assert.Error(t, doc.Split(5))
	assert.Error(t, doc.Split(-1))
}

func TestInsertAfter(t *testing.T) {
	doc := editorFixture()
	require.NoError(t, doc.InsertAfter(0))

	require.Len(t, doc.Captions, 4)
	inserted := doc.Captions[1]
	assert.Equal(t, "New caption text", inserted.Text)
	assert.Equal(t, "00:00:10,000", inserted.StartTime)
	// Runs up to the start of the following caption.
	assert.Equal(t, "00:00:10,000", inserted.EndTime)
}

func TestInsertAfterLast(t *testing.T) {
	doc := editorFixture()
	require.NoError(t, doc.InsertAfter(2))

	require.Len(t, doc.Captions, 4)
	inserted := doc.Captions[3]
	assert.Equal(t, "00:00:30,000", inserted.StartTime)
	// Three second default length when there is no next caption.
	assert.Equal(t, "00:00:33,000", inserted.EndTime)
	assert.Equal(t, 4, inserted.Index)
}

func TestRemove(t *testing.T) {
	doc := editorFixture()
	require.NoError(t, doc.Remove(1))

	require.Len(t, doc.Captions, 2)
	assert.Equal(t, "first part second part", doc.Captions[0].Text)
	assert.Equal(t, "last caption", doc.Captions[1].Text)
	assert.Equal(t, 2, doc.Captions[1].Index)
}

func TestRemoveLastRemainingFails(t *testing.T) {
	doc := NewDocument(FormatSRT)
	doc.Captions = []*Caption{NewCaption(1, "00:00:00,000", "00:00:01,000", "only", "")}

	assert.Error(t, doc.Remove(0))
	assert.Len(t, doc.Captions, 1)
}

func TestMergeWithNext(t *testing.T) {
	doc := editorFixture()
	require.NoError(t, doc.MergeWithNext(0))

	require.Len(t, doc.Captions, 2)
	merged := doc.Captions[0]
	assert.Equal(t, "first part second part\nmiddle caption", merged.Text)
	assert.Equal(t, "00:00:20,000", merged.EndTime)
	assert.Equal(t, "00:00:00,000", merged.StartTime)

	assert.Error(t, doc.MergeWithNext(1))
}

func TestMergeWithPrevious(t *testing.T) {
	doc := editorFixture()
	require.NoError(t, doc.MergeWithPrevious(1))

	require.Len(t, doc.Captions, 2)
	merged := doc.Captions[0]
	assert.Equal(t, "first part second part\nmiddle caption", merged.Text)
	assert.Equal(t, "00:00:20,000", merged.EndTime)

	assert.Error(t, doc.MergeWithPrevious(0))
}

func TestCaptionAtTime(t *testing.T) {
	doc := editorFixture()

	assert.Same(t, doc.Captions[0], doc.CaptionAtTime(5))
	assert.Same(t, doc.Captions[1], doc.CaptionAtTime(15))
	assert.Nil(t, doc.CaptionAtTime(99))
}

func TestSearch(t *testing.T) {
	doc := editorFixture()

	assert.Equal(t, []int{1, 2}, doc.Search("caption", false))
	assert.Equal(t, []int{1, 2}, doc.Search("CAPTION", false))
	assert.Empty(t, doc.Search("CAPTION", true))
	assert.Empty(t, doc.Search("   ", false))
}

func TestReplaceAll(t *testing.T) {
	doc := editorFixture()

	count := doc.ReplaceAll("Caption", "cue", false)
	assert.Equal(t, 2, count)
	assert.Equal(t, "middle cue", doc.Captions[1].Text)
	assert.Equal(t, "last cue", doc.Captions[2].Text)

	assert.Zero(t, doc.ReplaceAll("absent", "x", false))
}

func TestReplaceAllCaseSensitive(t *testing.T) {
	doc := editorFixture()
	doc.Captions[1].Text = "Caption caption"

	count := doc.ReplaceAll("Caption", "Cue", true)
	assert.Equal(t, 1, count)
	assert.Equal(t, "Cue caption", doc.Captions[1].Text)
}

func TestReplaceIn(t *testing.T) {
	doc := editorFixture()

	assert.True(t, doc.ReplaceIn(1, "middle", "center", false))
	assert.Equal(t, "center caption", doc.Captions[1].Text)

	assert.False(t, doc.ReplaceIn(0, "absent", "x", false))
	assert.False(t, doc.ReplaceIn(9, "middle", "x", false))
}
