// internal/subtitle/parse_test.go
package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = `1
00:00:10,000 --> 00:00:15,500
Hello world

2
00:00:16,000 --> 00:00:20,000
Second caption
with two lines

3
00:00:21,000 --> 00:00:25,000
Third caption`

func TestParseSRT(t *testing.T) {
	doc := ParseSRT(sampleSRT)

	require.Len(t, doc.Captions, 3)
	assert.Equal(t, FormatSRT, doc.Format)

	first := doc.Captions[0]
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, "00:00:10,000", first.StartTime)
	assert.Equal(t, "00:00:15,500", first.EndTime)
	assert.Equal(t, "Hello world", first.Text)
	assert.Equal(t, "UNKNOWN", first.Speaker)

	assert.Equal(t, "Second caption\nwith two lines", doc.Captions[1].Text)
}

func TestParseSRTSkipsMalformedBlocks(t *testing.T) {
	content := `1
00:00:10,000 --> 00:00:15,500
Good one

not-a-number
00:00:16,000 --> 00:00:20,000
Bad index

2
no arrow here
Bad timestamp

3
00:00:21,000 --> 00:00:25,000
Good two`

	doc := ParseSRT(content)

	require.Len(t, doc.Captions, 2)
	assert.Equal(t, "Good one", doc.Captions[0].Text)
	assert.Equal(t, "Good two", doc.Captions[1].Text)

	// Survivors are renumbered sequentially.
	assert.Equal(t, 1, doc.Captions[0].Index)
	assert.Equal(t, 2, doc.Captions[1].Index)
}

func TestParseSRTTrimsLeadingTextWhitespace(t *testing.T) {
	doc := ParseSRT("1\n00:00:01,000 --> 00:00:02,000\n   indented line\n\tanother")

	require.Len(t, doc.Captions, 1)
	assert.Equal(t, "indented line\nanother", doc.Captions[0].Text)
}

func TestParseSRTEmpty(t *testing.T) {
	assert.Empty(t, ParseSRT("").Captions)
	assert.Empty(t, ParseSRT("\n\n\n").Captions)
}

func TestParseSegmentsMergesSameSpeaker(t *testing.T) {
	payload := `{
		"segments": [
			{"speaker": "SPEAKER_00", "text": "Hello", "start": 0.0, "end": 2.0, "duration": 2.0},
			{"speaker": "SPEAKER_00", "text": "again", "start": 2.0, "end": 4.0, "duration": 2.0},
			{"speaker": "SPEAKER_01", "text": "Hi there", "start": 4.0, "end": 6.0, "duration": 2.0}
		]
	}`

	doc, err := ParseSegments([]byte(payload))
	require.NoError(t, err)

	require.Len(t, doc.Captions, 2)
	assert.Equal(t, FormatTXT, doc.Format)

	first := doc.Captions[0]
	assert.Equal(t, "Hello again", first.Text)
	assert.Equal(t, "SPEAKER_00", first.Speaker)
	assert.Equal(t, "00:00:00,000", first.StartTime)
	assert.Equal(t, "00:00:04,000", first.EndTime)

	second := doc.Captions[1]
	assert.Equal(t, "Hi there", second.Text)
	assert.Equal(t, "SPEAKER_01", second.Speaker)

	assert.Equal(t, 2, doc.SpeakerCount())
}

func TestParseSegmentsSkipsBlankText(t *testing.T) {
	payload := `{
		"segments": [
			{"speaker": "A", "text": "   ", "start": 0.0, "end": 1.0},
			{"speaker": "B", "text": "kept", "start": 1.0, "end": 2.0}
		]
	}`

	doc, err := ParseSegments([]byte(payload))
	require.NoError(t, err)
	require.Len(t, doc.Captions, 1)
	assert.Equal(t, "kept", doc.Captions[0].Text)
}

func TestParseSegmentsEmptyAndInvalid(t *testing.T) {
	doc, err := ParseSegments([]byte(`{"segments": []}`))
	require.NoError(t, err)
	assert.Empty(t, doc.Captions)

	_, err = ParseSegments([]byte("not json"))
	assert.Error(t, err)
}

func TestWordsPerMinute(t *testing.T) {
	doc := NewDocument(FormatSRT)
	doc.Captions = []*Caption{
		NewCaption(1, "00:00:00,000", "00:00:30,000", "one two three four five", ""),
		NewCaption(2, "00:00:30,000", "00:01:00,000", "six seven eight nine ten", ""),
	}

	// 10 words over 60 seconds.
	assert.InDelta(t, 10.0, doc.WordsPerMinute(), 0.0001)

	assert.Zero(t, NewDocument(FormatSRT).WordsPerMinute())
}
