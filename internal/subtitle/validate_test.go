// internal/subtitle/validate_test.go
package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCleanDocument(t *testing.T) {
	doc := editorFixture()
	doc.Captions[0].Valid = false

	errs := doc.Validate()

	assert.Empty(t, errs)
	// A clean run resets validity.
	for _, caption := range doc.Captions {
		assert.True(t, caption.Valid)
	}
}

func TestValidateEmptyText(t *testing.T) {
	doc := editorFixture()
	doc.Captions[1].Text = "   "

	errs := doc.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "Caption #2 has no text.", errs[0])
}

func TestValidateEndBeforeStart(t *testing.T) {
	doc := NewDocument(FormatSRT)
	doc.Captions = []*Caption{
		NewCaption(1, "00:00:10,000", "00:00:05,000", "backwards", ""),
	}

	errs := doc.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "Caption #1 has end time before start time.", errs[0])
	assert.False(t, doc.Captions[0].Valid)
}

func TestValidateOverlapWithNext(t *testing.T) {
	doc := NewDocument(FormatSRT)
	doc.Captions = []*Caption{
		NewCaption(1, "00:00:00,000", "00:00:12,000", "runs long", ""),
		NewCaption(2, "00:00:10,000", "00:00:20,000", "starts early", ""),
	}

	errs := doc.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "Caption #1 overlaps with caption #2.", errs[0])
	assert.False(t, doc.Captions[0].Valid)
	assert.True(t, doc.Captions[1].Valid)
}

func TestValidateDuplicateSpan(t *testing.T) {
	doc := NewDocument(FormatSRT)
	doc.Captions = []*Caption{
		NewCaption(1, "00:00:00,000", "00:00:05,000", "one", ""),
		NewCaption(2, "00:00:00,000", "00:00:05,000", "two", ""),
	}

	errs := doc.Validate()

	assert.Contains(t, errs, "Caption #2 overlaps with another caption.")
	assert.Contains(t, errs, "Multiple captions start at the same time: 1, 2.")
	assert.False(t, doc.Captions[0].Valid)
	assert.False(t, doc.Captions[1].Valid)
}
